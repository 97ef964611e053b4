package workers

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Worker is the compute unit a handle drives. Init receives the broadcast
// scene, RenderRow returns width*4 RGBA bytes for one row.
type Worker interface {
	Init(msg InitMessage) error
	RenderRow(row int) ([]byte, error)
}

// Factory builds the worker behind handle id. It runs on the handle's own
// goroutine; returning successfully is what makes the handle report ready.
type Factory func(id int) (Worker, error)

// State is a handle's lifecycle position
type State int32

const (
	StateSpawned State = iota
	StateAwaitingReady
	StateReady
	StateBusy
	StateIdle
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StateAwaitingReady:
		return "awaiting-ready"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateIdle:
		return "idle"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Handle wraps one worker goroutine. The coordinator talks to it only through
// SendInit and Assign; the worker answers on the pool's shared event channel.
type Handle struct {
	id      int
	session uint64
	state   atomic.Int32

	loaded  chan struct{}
	loadErr error

	initCh chan InitMessage
	jobs   chan JobMessage
	events chan<- Event

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	initSent     atomic.Bool
	jobsAssigned atomic.Int64
}

func spawnHandle(id int, session uint64, factory Factory, events chan<- Event) *Handle {
	h := &Handle{
		id:      id,
		session: session,
		loaded:  make(chan struct{}),
		initCh:  make(chan InitMessage, 1),
		jobs:    make(chan JobMessage, 1),
		events:  events,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	h.state.Store(int32(StateSpawned))
	go h.run(factory)
	return h
}

// ID returns the handle's index within its pool
func (h *Handle) ID() int {
	return h.id
}

// State returns the current lifecycle state
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Loaded is closed once the worker has started, successfully or not. After
// it is closed LoadErr reports the outcome.
func (h *Handle) Loaded() <-chan struct{} {
	return h.loaded
}

// LoadErr returns the worker startup error. Only meaningful after Loaded.
func (h *Handle) LoadErr() error {
	return h.loadErr
}

// Done is closed when the worker goroutine has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// JobsAssigned returns how many row jobs this handle has been given
func (h *Handle) JobsAssigned() int {
	return int(h.jobsAssigned.Load())
}

// SendInit delivers the init message. A second call is a protocol violation.
func (h *Handle) SendInit(msg InitMessage) error {
	if h.State() == StateTerminated {
		return fmt.Errorf("worker %d: %w", h.id, ErrHandleTerminated)
	}
	if !h.initSent.CompareAndSwap(false, true) {
		return fmt.Errorf("worker %d: init sent twice: %w", h.id, ErrProtocolViolation)
	}
	h.initCh <- msg
	return nil
}

// Assign hands the worker a row job and marks it busy. It never blocks: the
// job channel holds exactly the one outstanding job a worker may have.
func (h *Handle) Assign(job JobMessage) error {
	if h.State() == StateTerminated {
		return fmt.Errorf("worker %d: %w", h.id, ErrHandleTerminated)
	}
	select {
	case h.jobs <- job:
		h.jobsAssigned.Add(1)
		h.state.Store(int32(StateBusy))
		return nil
	default:
		return fmt.Errorf("worker %d: job already queued: %w", h.id, ErrProtocolViolation)
	}
}

// MarkIdle records that no further job is coming for this session
func (h *Handle) MarkIdle() {
	if h.State() != StateTerminated {
		h.state.Store(int32(StateIdle))
	}
}

func (h *Handle) stop() {
	h.stopOnce.Do(func() {
		h.state.Store(int32(StateTerminated))
		close(h.quit)
	})
}

func (h *Handle) run(factory Factory) {
	defer close(h.done)
	defer h.state.Store(int32(StateTerminated))

	h.state.Store(int32(StateAwaitingReady))
	w, err := factory(h.id)
	if err != nil {
		h.loadErr = fmt.Errorf("worker %d failed to start: %w", h.id, err)
		close(h.loaded)
		return
	}
	h.state.Store(int32(StateReady))
	close(h.loaded)

	initialized := false
	for {
		select {
		case <-h.quit:
			return

		case msg := <-h.initCh:
			if initialized {
				h.emit(Event{Kind: EventError, Row: -1, Message: "init received twice"})
				return
			}
			if err := w.Init(msg); err != nil {
				h.emit(Event{Kind: EventError, Row: -1, Message: err.Error()})
				return
			}
			initialized = true
			h.emit(Event{Kind: EventReady, Row: -1})

		case job := <-h.jobs:
			if !initialized {
				h.emit(Event{Kind: EventError, Row: job.Row, Message: "job received before init"})
				return
			}
			start := time.Now()
			pixels, err := w.RenderRow(job.Row)
			if err != nil {
				h.emit(Event{Kind: EventError, Row: job.Row, Message: err.Error(), Elapsed: time.Since(start)})
				continue
			}
			h.emit(Event{Kind: EventResult, Row: job.Row, Pixels: pixels, Elapsed: time.Since(start)})
		}
	}
}

// emit stamps the event with this handle's identity. It gives up if the
// handle is stopped so a worker never blocks on an abandoned session.
func (h *Handle) emit(ev Event) {
	ev.Session = h.session
	ev.Worker = h.id
	select {
	case h.events <- ev:
	case <-h.quit:
	}
}
