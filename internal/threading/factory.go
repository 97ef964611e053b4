package threading

import (
	"log"

	"rayrows/internal/threading/core"
	"rayrows/internal/threading/monitoring"
	"rayrows/internal/threading/session"
)

// ThreadingComponents holds all threading-related components
type ThreadingComponents struct {
	Sessions           *session.Manager
	DirectPool         *core.WorkerPool
	PerformanceMonitor *monitoring.PerformanceMonitor
}

// NewThreadingComponents creates and initializes all threading components.
// directWorkers sizes the pool used for renders that bypass the row
// protocol; 0 uses one goroutine per CPU.
func NewThreadingComponents(logger *log.Logger, directWorkers int) *ThreadingComponents {
	monitor := monitoring.NewPerformanceMonitor()
	pool := core.NewWorkerPool(directWorkers)
	pool.Start()

	return &ThreadingComponents{
		Sessions:           session.NewManager(logger, monitor),
		DirectPool:         pool,
		PerformanceMonitor: monitor,
	}
}

// Shutdown cancels any running session and stops the direct pool
func (tc *ThreadingComponents) Shutdown() {
	if tc.Sessions != nil {
		tc.Sessions.Cancel()
	}
	if tc.DirectPool != nil {
		tc.DirectPool.Stop()
	}
}

// LogPerformanceAlerts writes one warning per active performance alert and
// returns how many were logged
func (tc *ThreadingComponents) LogPerformanceAlerts(logger *log.Logger) int {
	if tc.PerformanceMonitor == nil {
		return 0
	}
	if logger == nil {
		logger = log.Default()
	}
	alerts := tc.PerformanceMonitor.CheckPerformanceAlerts()
	for _, alert := range alerts {
		logger.Printf("Warning: %s (%.1f, threshold %.1f)", alert.Message, alert.Value, alert.Threshold)
	}
	return len(alerts)
}
