package monitoring

import (
	"sync"
	"testing"
	"time"
)

// =============================================================================
// PERFORMANCE MONITOR TESTS
// =============================================================================

func TestNewPerformanceMonitor(t *testing.T) {
	pm := NewPerformanceMonitor()

	if pm == nil {
		t.Fatal("NewPerformanceMonitor returned nil")
	}

	// Check that start time is recent
	if time.Since(pm.startTime) > time.Second {
		t.Error("Start time should be recent")
	}
}

func TestPerformanceMonitorRowMetrics(t *testing.T) {
	pm := NewPerformanceMonitor()
	pm.SessionStarted(4)

	pm.RowDispatched()
	pm.RowDispatched()
	pm.RowCompleted(10 * time.Millisecond)
	pm.RowCompleted(30 * time.Millisecond)
	pm.WorkerIdle()

	m := pm.GetCurrentMetrics()
	if m.Dispatched != 2 {
		t.Errorf("Expected 2 rows dispatched, got %d", m.Dispatched)
	}
	if m.Completed != 2 {
		t.Errorf("Expected 2 rows completed, got %d", m.Completed)
	}
	if m.AverageRowTime != 20*time.Millisecond {
		t.Errorf("Expected 20ms average row time, got %s", m.AverageRowTime)
	}
	if m.MaxRowTime != 30*time.Millisecond {
		t.Errorf("Expected 30ms max row time, got %s", m.MaxRowTime)
	}
	if m.ActiveWorkers != 3 || m.IdleWorkers != 1 {
		t.Errorf("Expected 3 active and 1 idle worker, got %d and %d", m.ActiveWorkers, m.IdleWorkers)
	}

	pm.SessionFinished(true, time.Second)
	stats := pm.GetDetailedStats()
	if stats["sessions_completed"].(uint64) != 1 {
		t.Errorf("Expected 1 completed session, got %v", stats["sessions_completed"])
	}
	if _, ok := stats["rows_discarded"]; ok {
		t.Error("Expected no rows_discarded stat, sessions never share an event channel")
	}
	if stats["last_session_ms"].(float64) != 1000 {
		t.Errorf("Expected last session 1000ms, got %v", stats["last_session_ms"])
	}
}

func TestPerformanceMonitorSlowRowAlert(t *testing.T) {
	pm := NewPerformanceMonitor()
	pm.RowCompleted(time.Second)

	found := false
	for _, alert := range pm.CheckPerformanceAlerts() {
		if alert.Type == "slow_rows" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a slow_rows alert")
	}
}

func TestPerformanceMonitorConcurrency(t *testing.T) {
	pm := NewPerformanceMonitor()
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				pm.RowDispatched()
				pm.RowCompleted(time.Microsecond * 100)
			}
		}()
	}
	wg.Wait()

	if pm.GetCurrentMetrics().Completed != 100 {
		t.Errorf("Expected 100 rows completed, got %d", pm.GetCurrentMetrics().Completed)
	}
}
