package raytracer

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"rayrows/internal/threading/workers"

	"gopkg.in/yaml.v3"
)

var ErrEmptyScene = errors.New("scene has no spheres")

// Scene is everything a worker needs to trace rows besides the frame size
type Scene struct {
	Camera  CameraConfig `yaml:"camera"`
	Spheres World        `yaml:"spheres"`
}

// Validate checks materials and radii
func (s *Scene) Validate() error {
	if len(s.Spheres) == 0 {
		return ErrEmptyScene
	}
	for i, sp := range s.Spheres {
		if sp.Radius <= 0 {
			return fmt.Errorf("sphere %d: radius must be positive, got %v", i, sp.Radius)
		}
		if err := sp.Material.validate(); err != nil {
			return fmt.Errorf("sphere %d: %w", i, err)
		}
	}
	if s.Camera.VFov <= 0 || s.Camera.VFov >= 180 {
		return fmt.Errorf("camera vfov must be in (0, 180), got %v", s.Camera.VFov)
	}
	return nil
}

// Encode serializes the scene into the opaque blob sent to workers
func (s *Scene) Encode() (workers.Scene, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return workers.Scene(data), nil
}

// DecodeScene parses and validates a blob produced by Encode or a scene file
func DecodeScene(data []byte) (*Scene, error) {
	scene := &Scene{Camera: DefaultCameraConfig()}
	if err := yaml.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	return scene, nil
}

// LoadSceneFile reads a YAML scene from disk
func LoadSceneFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file %s: %w", path, err)
	}
	return DecodeScene(data)
}

// RandomScene builds the classic field of small spheres around three large
// ones. The same seed always yields the same scene.
func RandomScene(seed uint64) *Scene {
	rng := rand.New(rand.NewPCG(seed, 0x5ce9e))
	spheres := World{
		{Center: V(0, -1000, 0), Radius: 1000, Material: NewLambertian(V(0.5, 0.5, 0.5))},
	}

	avoid := V(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := rng.Float64()
			center := V(float64(a)+0.9*rng.Float64(), 0.2, float64(b)+0.9*rng.Float64())
			if center.Sub(avoid).Length() <= 0.9 {
				continue
			}

			var mat Material
			switch {
			case chooseMat < 0.8:
				mat = NewLambertian(V(
					rng.Float64()*rng.Float64(),
					rng.Float64()*rng.Float64(),
					rng.Float64()*rng.Float64(),
				))
			case chooseMat < 0.95:
				mat = NewMetal(V(
					0.5*(1+rng.Float64()),
					0.5*(1+rng.Float64()),
					0.5*(1+rng.Float64()),
				), 0.5*rng.Float64())
			default:
				mat = NewDielectric(1.5)
			}
			spheres = append(spheres, Sphere{Center: center, Radius: 0.2, Material: mat})
		}
	}

	spheres = append(spheres,
		Sphere{Center: V(0, 1, 0), Radius: 1, Material: NewDielectric(1.5)},
		Sphere{Center: V(-4, 1, 0), Radius: 1, Material: NewLambertian(V(0.4, 0.2, 0.1))},
		Sphere{Center: V(4, 1, 0), Radius: 1, Material: NewMetal(V(0.7, 0.6, 0.5), 0)},
	)

	return &Scene{Camera: DefaultCameraConfig(), Spheres: spheres}
}

// SceneGenerator produces scene blobs for render sessions. A non-empty Path
// loads the scene from disk; otherwise a random scene is built from Seed.
type SceneGenerator struct {
	Path string
	Seed uint64
}

// GenerateScene returns the encoded scene
func (g SceneGenerator) GenerateScene() (workers.Scene, error) {
	var scene *Scene
	if g.Path != "" {
		loaded, err := LoadSceneFile(g.Path)
		if err != nil {
			return nil, err
		}
		scene = loaded
	} else {
		scene = RandomScene(g.Seed)
	}
	return scene.Encode()
}
