package raytracer

import (
	"math"
	"math/rand/v2"
)

// Vec3 is used for points, directions and colors alike
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Mul multiplies component-wise
func (a Vec3) Mul(b Vec3) Vec3 {
	return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z}
}

func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Vec3) Length() float64 {
	return math.Sqrt(a.Dot(a))
}

// Unit returns a unit-length copy of a. The zero vector is returned as-is.
func (a Vec3) Unit() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Reflect mirrors v about the normal n
func Reflect(v, n Vec3) Vec3 {
	return v.Sub(n.Scale(2 * v.Dot(n)))
}

// Refract bends v through a surface with normal n. ok is false on total
// internal reflection.
func Refract(v, n Vec3, niOverNt float64) (Vec3, bool) {
	uv := v.Unit()
	dt := uv.Dot(n)
	discriminant := 1 - niOverNt*niOverNt*(1-dt*dt)
	if discriminant <= 0 {
		return Vec3{}, false
	}
	return uv.Sub(n.Scale(dt)).Scale(niOverNt).Sub(n.Scale(math.Sqrt(discriminant))), true
}

// Schlick approximates reflectance for a dielectric
func Schlick(cosine, refIdx float64) float64 {
	r0 := (1 - refIdx) / (1 + refIdx)
	r0 *= r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}

func randomInUnitSphere(rng *rand.Rand) Vec3 {
	for {
		p := V(rng.Float64(), rng.Float64(), rng.Float64()).Scale(2).Sub(V(1, 1, 1))
		if p.Dot(p) < 1 {
			return p
		}
	}
}

func randomInUnitDisk(rng *rand.Rand) Vec3 {
	for {
		p := V(rng.Float64(), rng.Float64(), 0).Scale(2).Sub(V(1, 1, 0))
		if p.Dot(p) < 1 {
			return p
		}
	}
}
