package raytracer

import (
	"math"
	"math/rand/v2"
)

// CameraConfig positions a thin-lens camera
type CameraConfig struct {
	LookFrom  Vec3    `yaml:"look_from,flow"`
	LookAt    Vec3    `yaml:"look_at,flow"`
	VUp       Vec3    `yaml:"vup,flow"`
	VFov      float64 `yaml:"vfov"`
	Aperture  float64 `yaml:"aperture"`
	FocusDist float64 `yaml:"focus_dist,omitempty"` // 0 focuses on LookAt
}

// DefaultCameraConfig is the wide shot over the random sphere field
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		LookFrom: V(16, 2, 4),
		LookAt:   V(0, 0, 0),
		VUp:      V(0, 1, 0),
		VFov:     15,
		Aperture: 0.2,
	}
}

// Camera generates primary rays for (s, t) in [0,1]^2, t=0 at the bottom
type Camera struct {
	origin          Vec3
	lowerLeftCorner Vec3
	horizontal      Vec3
	vertical        Vec3
	u, v            Vec3
	lensRadius      float64
}

// NewCamera builds a camera for the given aspect ratio
func NewCamera(cfg CameraConfig, aspect float64) Camera {
	focusDist := cfg.FocusDist
	if focusDist <= 0 {
		focusDist = cfg.LookFrom.Sub(cfg.LookAt).Length()
	}
	theta := cfg.VFov * math.Pi / 180
	halfHeight := math.Tan(theta / 2)
	halfWidth := aspect * halfHeight

	w := cfg.LookFrom.Sub(cfg.LookAt).Unit()
	u := cfg.VUp.Cross(w).Unit()
	v := w.Cross(u)

	return Camera{
		origin: cfg.LookFrom,
		lowerLeftCorner: cfg.LookFrom.
			Sub(u.Scale(halfWidth * focusDist)).
			Sub(v.Scale(halfHeight * focusDist)).
			Sub(w.Scale(focusDist)),
		horizontal: u.Scale(2 * halfWidth * focusDist),
		vertical:   v.Scale(2 * halfHeight * focusDist),
		u:          u,
		v:          v,
		lensRadius: cfg.Aperture / 2,
	}
}

// Ray returns a ray through the image plane point (s, t)
func (c Camera) Ray(s, t float64, rng *rand.Rand) Ray {
	rd := randomInUnitDisk(rng).Scale(c.lensRadius)
	offset := c.u.Scale(rd.X).Add(c.v.Scale(rd.Y))
	origin := c.origin.Add(offset)
	target := c.lowerLeftCorner.Add(c.horizontal.Scale(s)).Add(c.vertical.Scale(t))
	return Ray{Origin: origin, Direction: target.Sub(origin)}
}
