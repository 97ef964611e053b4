package session

import (
	"context"
	"log"
	"sync"

	"rayrows/internal/threading/monitoring"
)

// Manager runs at most one session at a time. Submitting a new request
// cancels the running session and waits for it to stop before the new one
// starts, so results from two sessions never mix.
type Manager struct {
	mu      sync.Mutex
	logger  *log.Logger
	monitor *monitoring.PerformanceMonitor

	gen     uint64
	current *Session
	cancel  context.CancelFunc
}

// NewManager creates a manager sharing logger and monitor across sessions
func NewManager(logger *log.Logger, monitor *monitoring.PerformanceMonitor) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if monitor == nil {
		monitor = monitoring.NewPerformanceMonitor()
	}
	return &Manager{logger: logger, monitor: monitor}
}

// Monitor returns the metrics shared by all sessions
func (m *Manager) Monitor() *monitoring.PerformanceMonitor {
	return m.monitor
}

// Submit stops any running session and starts req in the background
func (m *Manager) Submit(ctx context.Context, req Request) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	s, err := New(m.gen+1, req, m.logger, m.monitor)
	if err != nil {
		return nil, err
	}
	m.gen++

	runCtx, cancel := context.WithCancel(ctx)
	m.current = s
	m.cancel = cancel
	go func() {
		defer cancel()
		s.Run(runCtx)
	}()
	return s, nil
}

// Cancel stops the running session, if any, and waits for it to finish
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.current == nil {
		return
	}
	m.cancel()
	<-m.current.Done()
	m.current = nil
	m.cancel = nil
}

// Current returns the most recently submitted session that has not been
// cancelled, or nil
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Wait blocks until the current session finishes and returns its error
func (m *Manager) Wait(ctx context.Context) error {
	s := m.Current()
	if s == nil {
		return nil
	}
	select {
	case <-s.Done():
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
