package raytracer

import (
	"fmt"
	"math/rand/v2"
)

// MaterialKind selects how a surface scatters light
type MaterialKind string

const (
	Lambertian MaterialKind = "lambertian"
	Metal      MaterialKind = "metal"
	Dielectric MaterialKind = "dielectric"
)

// Material describes a sphere surface. Albedo applies to lambertian and
// metal, Fuzz to metal, RefIdx to dielectric.
type Material struct {
	Kind   MaterialKind `yaml:"kind"`
	Albedo Vec3         `yaml:"albedo,flow,omitempty"`
	Fuzz   float64      `yaml:"fuzz,omitempty"`
	RefIdx float64      `yaml:"ref_idx,omitempty"`
}

func NewLambertian(albedo Vec3) Material {
	return Material{Kind: Lambertian, Albedo: albedo}
}

// NewMetal clamps fuzz to 1
func NewMetal(albedo Vec3, fuzz float64) Material {
	return Material{Kind: Metal, Albedo: albedo, Fuzz: min(fuzz, 1)}
}

func NewDielectric(refIdx float64) Material {
	return Material{Kind: Dielectric, RefIdx: refIdx}
}

func (m Material) validate() error {
	switch m.Kind {
	case Lambertian, Metal:
		return nil
	case Dielectric:
		if m.RefIdx <= 0 {
			return fmt.Errorf("dielectric needs a positive ref_idx, got %v", m.RefIdx)
		}
		return nil
	default:
		return fmt.Errorf("unknown material %q", m.Kind)
	}
}

// Scatter returns the attenuation and scattered ray, or ok=false when the
// ray is absorbed
func (m Material) Scatter(in Ray, rec HitRecord, rng *rand.Rand) (attenuation Vec3, scattered Ray, ok bool) {
	switch m.Kind {
	case Lambertian:
		target := rec.P.Add(rec.Normal).Add(randomInUnitSphere(rng))
		return m.Albedo, Ray{Origin: rec.P, Direction: target.Sub(rec.P)}, true

	case Metal:
		reflected := Reflect(in.Direction.Unit(), rec.Normal)
		scattered = Ray{Origin: rec.P, Direction: reflected.Add(randomInUnitSphere(rng).Scale(min(m.Fuzz, 1)))}
		return m.Albedo, scattered, scattered.Direction.Dot(rec.Normal) > 0

	case Dielectric:
		attenuation = V(1, 1, 1)
		var outwardNormal Vec3
		var niOverNt, cosine float64
		d := in.Direction.Dot(rec.Normal)
		if d > 0 {
			outwardNormal = rec.Normal.Scale(-1)
			niOverNt = m.RefIdx
			cosine = m.RefIdx * d / in.Direction.Length()
		} else {
			outwardNormal = rec.Normal
			niOverNt = 1 / m.RefIdx
			cosine = -d / in.Direction.Length()
		}

		reflectProb := 1.0
		refracted, canRefract := Refract(in.Direction, outwardNormal, niOverNt)
		if canRefract {
			reflectProb = Schlick(cosine, m.RefIdx)
		}
		if rng.Float64() < reflectProb {
			return attenuation, Ray{Origin: rec.P, Direction: Reflect(in.Direction, rec.Normal)}, true
		}
		return attenuation, Ray{Origin: rec.P, Direction: refracted}, true
	}
	return Vec3{}, Ray{}, false
}
