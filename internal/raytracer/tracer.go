package raytracer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	DefaultSamples  = 100
	DefaultMaxDepth = 50

	// Intersections closer than this are ignored to avoid self-hits
	shadowBias = 0.001
)

var ErrRowOutOfRange = errors.New("row out of range")

// Options tunes image quality and noise
type Options struct {
	Samples  int    // rays per pixel
	MaxDepth int    // bounce limit
	Seed     uint64 // mixes into every row's random stream
}

func (o Options) withDefaults() Options {
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Tracer renders rows of a fixed-size image. Each row draws from its own
// random stream so a row's bytes do not depend on which goroutine renders
// it or in what order.
type Tracer struct {
	width, height int
	opts          Options
	camera        Camera
	world         World
}

// NewTracer prepares a tracer for a width x height frame
func NewTracer(scene *Scene, width, height int, opts Options) *Tracer {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	return &Tracer{
		width:  width,
		height: height,
		opts:   opts.withDefaults(),
		camera: NewCamera(scene.Camera, aspect),
		world:  scene.Spheres,
	}
}

func (t *Tracer) Width() int {
	return t.width
}

func (t *Tracer) Height() int {
	return t.height
}

// RenderRow returns width*4 RGBA bytes for the given row. Row 0 is the
// bottom of the image.
func (t *Tracer) RenderRow(row int) ([]byte, error) {
	if row < 0 || row >= t.height {
		return nil, fmt.Errorf("row %d of %d: %w", row, t.height, ErrRowOutOfRange)
	}

	rng := rand.New(rand.NewPCG(t.opts.Seed, uint64(row)))
	out := make([]byte, t.width*4)
	ns := float64(t.opts.Samples)

	for x := 0; x < t.width; x++ {
		var col Vec3
		for s := 0; s < t.opts.Samples; s++ {
			u := (float64(x) + rng.Float64()) / float64(t.width)
			v := (float64(row) + rng.Float64()) / float64(t.height)
			col = col.Add(t.color(t.camera.Ray(u, v, rng), rng))
		}
		col = col.Scale(1 / ns)

		i := x * 4
		out[i] = toByte(col.X)
		out[i+1] = toByte(col.Y)
		out[i+2] = toByte(col.Z)
		out[i+3] = 255
	}
	return out, nil
}

func (t *Tracer) color(r Ray, rng *rand.Rand) Vec3 {
	attenuation := V(1, 1, 1)
	for depth := 0; depth < t.opts.MaxDepth; depth++ {
		rec, hit := t.world.Hit(r, shadowBias, math.MaxFloat64)
		if !hit {
			return attenuation.Mul(sky(r))
		}
		a, scattered, ok := rec.Material.Scatter(r, rec, rng)
		if !ok {
			return Vec3{}
		}
		attenuation = attenuation.Mul(a)
		r = scattered
	}
	return Vec3{}
}

func sky(r Ray) Vec3 {
	unit := r.Direction.Unit()
	t := 0.5 * (unit.Y + 1)
	return V(1, 1, 1).Scale(1 - t).Add(V(0.5, 0.7, 1).Scale(t))
}

// toByte applies gamma 2 and scales into 0..255
func toByte(c float64) byte {
	if c <= 0 {
		return 0
	}
	v := 255.99 * math.Sqrt(c)
	if v >= 255 {
		return 255
	}
	return byte(v)
}
