package monitoring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Alert thresholds
const (
	slowRowThreshold    = 250 * time.Millisecond
	highMemoryThreshold = 500 // MB
)

// PerformanceMonitor tracks row throughput for render sessions
type PerformanceMonitor struct {
	// Row metrics
	rowsDispatched atomic.Uint64
	rowsCompleted  atomic.Uint64
	lastRowTime    atomic.Uint64 // nanoseconds

	// Worker metrics
	activeWorkers atomic.Int32
	idleWorkers   atomic.Int32

	// Session metrics
	sessionsStarted   atomic.Uint64
	sessionsCompleted atomic.Uint64
	sessionsFailed    atomic.Uint64

	// Statistics
	mutex        sync.RWMutex
	totalRowTime time.Duration
	maxRowTime   time.Duration
	lastSession  time.Duration
	startTime    time.Time
}

// NewPerformanceMonitor creates a new performance monitor
func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{
		startTime: time.Now(),
	}
}

// SessionStarted records a new session with the given number of workers
func (pm *PerformanceMonitor) SessionStarted(workers int) {
	pm.sessionsStarted.Add(1)
	pm.activeWorkers.Store(int32(workers))
	pm.idleWorkers.Store(0)
}

// SessionFinished records the outcome and wall-clock time of a session
func (pm *PerformanceMonitor) SessionFinished(ok bool, elapsed time.Duration) {
	if ok {
		pm.sessionsCompleted.Add(1)
	} else {
		pm.sessionsFailed.Add(1)
	}
	pm.activeWorkers.Store(0)

	pm.mutex.Lock()
	pm.lastSession = elapsed
	pm.mutex.Unlock()
}

// RowDispatched counts a row handed to a worker
func (pm *PerformanceMonitor) RowDispatched() {
	pm.rowsDispatched.Add(1)
}

// RowCompleted counts an applied row and the time the worker spent on it
func (pm *PerformanceMonitor) RowCompleted(elapsed time.Duration) {
	pm.rowsCompleted.Add(1)
	pm.lastRowTime.Store(uint64(elapsed.Nanoseconds()))

	pm.mutex.Lock()
	pm.totalRowTime += elapsed
	if elapsed > pm.maxRowTime {
		pm.maxRowTime = elapsed
	}
	pm.mutex.Unlock()
}

// WorkerIdle moves one worker from active to idle
func (pm *PerformanceMonitor) WorkerIdle() {
	pm.activeWorkers.Add(-1)
	pm.idleWorkers.Add(1)
}

// RowStats is a point-in-time view of row throughput
type RowStats struct {
	Dispatched     uint64
	Completed      uint64
	ActiveWorkers  int32
	IdleWorkers    int32
	AverageRowTime time.Duration
	MaxRowTime     time.Duration
	LastSession    time.Duration
}

// GetCurrentMetrics returns current row metrics
func (pm *PerformanceMonitor) GetCurrentMetrics() RowStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	return RowStats{
		Dispatched:     pm.rowsDispatched.Load(),
		Completed:      pm.rowsCompleted.Load(),
		ActiveWorkers:  pm.activeWorkers.Load(),
		IdleWorkers:    pm.idleWorkers.Load(),
		AverageRowTime: pm.averageRowTimeLocked(),
		MaxRowTime:     pm.maxRowTime,
		LastSession:    pm.lastSession,
	}
}

func (pm *PerformanceMonitor) averageRowTimeLocked() time.Duration {
	completed := pm.rowsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return pm.totalRowTime / time.Duration(completed)
}

// GetAverageRowTime returns the mean worker time per completed row
func (pm *PerformanceMonitor) GetAverageRowTime() time.Duration {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()
	return pm.averageRowTimeLocked()
}

// GetDetailedStats returns detailed performance statistics
func (pm *PerformanceMonitor) GetDetailedStats() map[string]interface{} {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"uptime_seconds":     time.Since(pm.startTime).Seconds(),
		"rows_dispatched":    pm.rowsDispatched.Load(),
		"rows_completed":     pm.rowsCompleted.Load(),
		"avg_row_time_ms":    float64(pm.averageRowTimeLocked()) / float64(time.Millisecond),
		"max_row_time_ms":    float64(pm.maxRowTime) / float64(time.Millisecond),
		"last_row_time_ms":   float64(pm.lastRowTime.Load()) / float64(time.Millisecond),
		"last_session_ms":    float64(pm.lastSession) / float64(time.Millisecond),
		"active_workers":     pm.activeWorkers.Load(),
		"idle_workers":       pm.idleWorkers.Load(),
		"sessions_started":   pm.sessionsStarted.Load(),
		"sessions_completed": pm.sessionsCompleted.Load(),
		"sessions_failed":    pm.sessionsFailed.Load(),
		"memory_alloc_mb":    memStats.Alloc / 1024 / 1024,
		"memory_sys_mb":      memStats.Sys / 1024 / 1024,
		"gc_cycles":          memStats.NumGC,
		"cpu_cores":          runtime.NumCPU(),
		"goroutines":         runtime.NumGoroutine(),
	}
}

// PerformanceAlert represents a performance warning
type PerformanceAlert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// CheckPerformanceAlerts checks for performance issues and returns alerts
func (pm *PerformanceMonitor) CheckPerformanceAlerts() []PerformanceAlert {
	alerts := make([]PerformanceAlert, 0)
	currentTime := time.Now()

	if avg := pm.GetAverageRowTime(); avg > slowRowThreshold {
		alerts = append(alerts, PerformanceAlert{
			Type:      "slow_rows",
			Message:   "Average row render time is above 250ms",
			Value:     float64(avg) / float64(time.Millisecond),
			Threshold: float64(slowRowThreshold) / float64(time.Millisecond),
			Timestamp: currentTime,
		})
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024
	if memoryMB > highMemoryThreshold {
		alerts = append(alerts, PerformanceAlert{
			Type:      "high_memory",
			Message:   "Memory usage is above 500MB",
			Value:     memoryMB,
			Threshold: highMemoryThreshold,
			Timestamp: currentTime,
		})
	}

	return alerts
}
