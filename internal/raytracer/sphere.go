package raytracer

import "math"

// HitRecord describes a ray-surface intersection
type HitRecord struct {
	T        float64
	P        Vec3
	Normal   Vec3
	Material Material
}

// Sphere is the only primitive the scene supports
type Sphere struct {
	Center   Vec3     `yaml:"center,flow"`
	Radius   float64  `yaml:"radius"`
	Material Material `yaml:"material"`
}

// Hit finds the nearest intersection with t in (tMin, tMax)
func (s Sphere) Hit(r Ray, tMin, tMax float64) (HitRecord, bool) {
	oc := r.Origin.Sub(s.Center)
	a := r.Direction.Dot(r.Direction)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	discriminant := b*b - a*c
	if discriminant <= 0 {
		return HitRecord{}, false
	}

	sq := math.Sqrt(discriminant)
	for _, t := range [2]float64{(-b - sq) / a, (-b + sq) / a} {
		if t < tMax && t > tMin {
			p := r.At(t)
			return HitRecord{
				T:        t,
				P:        p,
				Normal:   p.Sub(s.Center).Scale(1 / s.Radius),
				Material: s.Material,
			}, true
		}
	}
	return HitRecord{}, false
}

// World is a flat list of spheres
type World []Sphere

// Hit returns the closest intersection across all spheres
func (w World) Hit(r Ray, tMin, tMax float64) (HitRecord, bool) {
	var closest HitRecord
	hitAnything := false
	closestSoFar := tMax
	for i := range w {
		if rec, ok := w[i].Hit(r, tMin, closestSoFar); ok {
			hitAnything = true
			closestSoFar = rec.T
			closest = rec
		}
	}
	return closest, hitAnything
}
