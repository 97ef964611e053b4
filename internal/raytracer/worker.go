package raytracer

import (
	"errors"

	"rayrows/internal/threading/workers"
)

var ErrNotInitialized = errors.New("tracer worker has no scene")

// Worker adapts a Tracer to the row worker protocol
type Worker struct {
	opts   Options
	tracer *Tracer
}

// NewWorker creates an uninitialized worker
func NewWorker(opts Options) *Worker {
	return &Worker{opts: opts}
}

// Init decodes the scene and sizes the tracer
func (w *Worker) Init(msg workers.InitMessage) error {
	scene, err := DecodeScene(msg.Scene)
	if err != nil {
		return err
	}
	w.tracer = NewTracer(scene, msg.Width, msg.Height, w.opts)
	return nil
}

// RenderRow traces one row
func (w *Worker) RenderRow(row int) ([]byte, error) {
	if w.tracer == nil {
		return nil, ErrNotInitialized
	}
	return w.tracer.RenderRow(row)
}

// NewFactory returns a worker factory where every worker shares opts
func NewFactory(opts Options) workers.Factory {
	return func(id int) (workers.Worker, error) {
		return NewWorker(opts), nil
	}
}
