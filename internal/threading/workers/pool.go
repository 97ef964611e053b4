package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pool owns a fixed set of handles and the event channel they share
type Pool struct {
	session uint64
	handles []*Handle
	events  chan Event
	logger  *log.Logger

	terminateOnce sync.Once
}

// NewPool spawns count handles, each running a worker built by factory.
// Events from every handle are tagged with session.
func NewPool(count int, factory Factory, session uint64, logger *log.Logger) (*Pool, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrPoolCreation, count)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: nil worker factory", ErrPoolCreation)
	}
	if logger == nil {
		logger = log.Default()
	}

	p := &Pool{
		session: session,
		handles: make([]*Handle, count),
		// Every handle has at most one event in flight per message it was sent
		events: make(chan Event, count*2),
		logger: logger,
	}
	for i := range p.handles {
		p.handles[i] = spawnHandle(i, session, factory, p.events)
	}
	return p, nil
}

// Events is the fan-in channel of every handle's events
func (p *Pool) Events() <-chan Event {
	return p.events
}

// Handles returns the pool's handles indexed by worker id
func (p *Pool) Handles() []*Handle {
	return p.handles
}

// Handle returns the handle for worker id, or nil if id is out of range
func (p *Pool) Handle(id int) *Handle {
	if id < 0 || id >= len(p.handles) {
		return nil
	}
	return p.handles[id]
}

// Size returns the number of handles
func (p *Pool) Size() int {
	return len(p.handles)
}

// Session returns the session tag stamped on this pool's events
func (p *Pool) Session() uint64 {
	return p.session
}

// AwaitAllReady blocks until every handle has reported ready. A timeout of
// zero waits for as long as ctx allows.
func (p *Pool) AwaitAllReady(ctx context.Context, timeout time.Duration) error {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(waitCtx)
	for _, h := range p.handles {
		g.Go(func() error {
			select {
			case <-h.Loaded():
				return h.LoadErr()
			case <-gctx.Done():
				if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
					return &HandshakeTimeoutError{Worker: h.ID(), Timeout: timeout}
				}
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.logger.Printf("workers: %d workers ready (session %d)", len(p.handles), p.session)
	return nil
}

// BroadcastInit sends msg to every handle. Handles must have reported ready.
func (p *Pool) BroadcastInit(msg InitMessage) error {
	for _, h := range p.handles {
		select {
		case <-h.Loaded():
		default:
			return fmt.Errorf("worker %d: init before ready: %w", h.ID(), ErrProtocolViolation)
		}
		if err := h.LoadErr(); err != nil {
			return err
		}
		if err := h.SendInit(msg); err != nil {
			return err
		}
	}
	return nil
}

// Terminate stops every handle. Later calls do nothing.
func (p *Pool) Terminate() {
	p.terminateOnce.Do(func() {
		for _, h := range p.handles {
			h.stop()
		}
	})
}

// Wait blocks until every worker goroutine has exited or ctx is done
func (p *Pool) Wait(ctx context.Context) error {
	for _, h := range p.handles {
		select {
		case <-h.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
