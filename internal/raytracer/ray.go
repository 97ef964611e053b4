package raytracer

// Ray is a half-line from Origin along Direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// At returns the point at parameter t
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}
