package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"rayrows/internal/threading/core"
	"rayrows/internal/threading/monitoring"
	"rayrows/internal/threading/rendering"
	"rayrows/internal/threading/workers"

	"github.com/google/uuid"
)

// DefaultPartialFrameEvery is how many received rows pass between partial
// frame updates
const DefaultPartialFrameEvery = 10

// State is where a session is in its life
type State int32

const (
	StatePending State = iota
	StateRunning
	StateComplete
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Request describes one render job
type Request struct {
	Width   int
	Height  int
	Workers int

	// HandshakeTimeout bounds the readiness join barrier. Zero means no bound
	// beyond the caller's context.
	HandshakeTimeout time.Duration

	// PartialFrameEvery is the partial frame cadence in rows. Zero uses
	// DefaultPartialFrameEvery.
	PartialFrameEvery int

	Factory   workers.Factory
	Scenes    SceneSource
	Presenter Presenter
}

func (r Request) validate() error {
	switch {
	case r.Width < 0 || r.Height < 0:
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidRequest, r.Width, r.Height)
	case r.Factory == nil:
		return fmt.Errorf("%w: no worker factory", ErrInvalidRequest)
	case r.Scenes == nil:
		return fmt.Errorf("%w: no scene source", ErrInvalidRequest)
	}
	return nil
}

// Session coordinates one render: it owns the worker pool, the row credits,
// the framebuffer and the progress clock. All of its decisions are made on
// the goroutine that calls Run.
type Session struct {
	id  string
	gen uint64
	req Request

	logger   *log.Logger
	monitor  *monitoring.PerformanceMonitor
	frame    *rendering.FrameAssembler
	progress *monitoring.ProgressReporter

	state      atomic.Int32
	dispatcher *Dispatcher
	pool       *workers.Pool

	done chan struct{}
	err  error
}

// New prepares a session. The progress clock starts now.
func New(gen uint64, req Request, logger *log.Logger, monitor *monitoring.PerformanceMonitor) (*Session, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.PartialFrameEvery <= 0 {
		req.PartialFrameEvery = DefaultPartialFrameEvery
	}
	if req.Presenter == nil {
		req.Presenter = PresenterFuncs{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if monitor == nil {
		monitor = monitoring.NewPerformanceMonitor()
	}

	return &Session{
		id:       uuid.New().String(),
		gen:      gen,
		req:      req,
		logger:   logger,
		monitor:  monitor,
		frame:    rendering.NewFrameAssembler(req.Width, req.Height),
		progress: monitoring.NewProgressReporter(req.Height),
		done:     make(chan struct{}),
	}, nil
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Frame returns the framebuffer. It may be read at any time, including while
// rows are still arriving.
func (s *Session) Frame() *rendering.FrameAssembler {
	return s.frame
}

// Done is closed when Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns Run's result once Done is closed
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Assignments returns the number of rows given to each worker. Only
// meaningful once Done is closed.
func (s *Session) Assignments() []int {
	select {
	case <-s.done:
	default:
		return nil
	}
	if s.dispatcher == nil {
		return make([]int, max(s.req.Workers, 0))
	}
	return s.dispatcher.Assignments()
}

// Run executes the session to completion, failure or cancellation. It may
// only be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StatePending), int32(StateRunning)) {
		return ErrSessionStarted
	}
	defer close(s.done)
	s.err = s.run(ctx)
	return s.err
}

func (s *Session) run(ctx context.Context) error {
	s.logger.Printf("session %s: rendering %dx%d on %d workers", s.id, s.req.Width, s.req.Height, s.req.Workers)

	pool, err := workers.NewPool(s.req.Workers, s.req.Factory, s.gen, s.logger)
	if err != nil {
		return s.fail(err)
	}
	s.pool = pool
	defer pool.Terminate()
	s.monitor.SessionStarted(pool.Size())

	if s.req.Height == 0 {
		s.dispatcher = NewDispatcher(pool.Size(), core.NewRowCreditCounter(0), s.monitor)
		return s.complete()
	}

	if err := pool.AwaitAllReady(ctx, s.req.HandshakeTimeout); err != nil {
		if ctx.Err() != nil {
			return s.cancel(ctx.Err())
		}
		return s.fail(err)
	}

	scene, err := s.req.Scenes.GenerateScene()
	if err != nil {
		return s.fail(fmt.Errorf("generate scene: %w", err))
	}

	s.dispatcher = NewDispatcher(pool.Size(), core.NewRowCreditCounter(s.req.Height), s.monitor)
	if err := pool.BroadcastInit(workers.InitMessage{Width: s.req.Width, Height: s.req.Height, Scene: scene}); err != nil {
		return s.fail(err)
	}

	for {
		select {
		case <-ctx.Done():
			return s.cancel(ctx.Err())
		case ev := <-pool.Events():
			complete, err := s.handleEvent(ev)
			if err != nil {
				return s.fail(err)
			}
			if complete {
				return s.complete()
			}
		}
	}
}

// handleEvent reacts to one worker event and reports whether the frame is
// now complete
func (s *Session) handleEvent(ev workers.Event) (bool, error) {
	h := s.pool.Handle(ev.Worker)
	if h == nil {
		return false, fmt.Errorf("event from unknown worker %d: %w", ev.Worker, workers.ErrProtocolViolation)
	}

	switch ev.Kind {
	case workers.EventReady:
		_, err := s.dispatcher.Dispatch(h)
		return false, err

	case workers.EventError:
		return false, &WorkerReportedError{Worker: ev.Worker, Row: ev.Row, Message: ev.Message}

	case workers.EventResult:
		if err := s.dispatcher.Complete(ev.Worker, ev.Row); err != nil {
			return false, err
		}
		if err := s.frame.ApplyRow(ev.Row, ev.Pixels); err != nil {
			return false, &WorkerReportedError{Worker: ev.Worker, Row: ev.Row, Message: err.Error(), Err: err}
		}
		s.monitor.RowCompleted(ev.Elapsed)

		received := s.frame.Received()
		if received == s.req.Height {
			return true, nil
		}
		s.req.Presenter.OnProgress(s.progress.Report(received))
		if received%s.req.PartialFrameEvery == 0 {
			s.req.Presenter.OnPartialFrame(s.frame)
		}
		_, err := s.dispatcher.Dispatch(h)
		return false, err
	}

	return false, fmt.Errorf("unknown event kind %s: %w", ev.Kind, workers.ErrProtocolViolation)
}

func (s *Session) complete() error {
	s.state.Store(int32(StateComplete))
	s.progress.Finish()
	elapsed := s.progress.Elapsed()
	s.monitor.SessionFinished(true, elapsed)

	status := s.progress.Report(s.frame.Received())
	s.req.Presenter.OnPartialFrame(s.frame)
	s.req.Presenter.OnProgress(status)
	s.req.Presenter.OnComplete(s.frame, elapsed)
	s.logger.Printf("session %s: %d rows %s", s.id, s.frame.Received(), status)
	return nil
}

// fail freezes dispatch and notifies the presenter exactly once
func (s *Session) fail(err error) error {
	if s.dispatcher != nil {
		s.dispatcher.Freeze()
	}
	s.state.Store(int32(StateFailed))
	s.monitor.SessionFinished(false, s.progress.Elapsed())

	s.req.Presenter.OnFailure(failureMessage(err))
	s.logger.Printf("session %s: failed after %d of %d rows: %v", s.id, s.frame.Received(), s.req.Height, err)
	return err
}

func (s *Session) cancel(cause error) error {
	if s.dispatcher != nil {
		s.dispatcher.Freeze()
	}
	s.state.Store(int32(StateCancelled))
	s.monitor.SessionFinished(false, s.progress.Elapsed())
	s.logger.Printf("session %s: cancelled after %d of %d rows", s.id, s.frame.Received(), s.req.Height)
	if cause != nil && !errors.Is(cause, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrSessionCancelled, cause)
	}
	return ErrSessionCancelled
}
