package raytracer

import (
	"context"

	"rayrows/internal/threading/core"
	"rayrows/internal/threading/rendering"
)

// RenderImage renders every row on pool without the row protocol. It
// produces the same bytes as a coordinated session with the same scene and
// options.
func RenderImage(ctx context.Context, pool *core.WorkerPool, tracer *Tracer) (*rendering.FrameAssembler, error) {
	frame := rendering.NewFrameAssembler(tracer.Width(), tracer.Height())
	errs := make([]error, tracer.Height())

	pool.ParallelForWithContext(ctx, 0, tracer.Height(), func(row int) {
		pixels, err := tracer.RenderRow(row)
		if err == nil {
			err = frame.ApplyRow(row, pixels)
		}
		errs[row] = err
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return frame, nil
}
