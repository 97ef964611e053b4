package session

import (
	"fmt"

	"rayrows/internal/threading/core"
	"rayrows/internal/threading/monitoring"
	"rayrows/internal/threading/workers"
)

const noJob = -1

// Dispatcher decides what each worker does next. It is only ever driven from
// the session's coordinator goroutine.
type Dispatcher struct {
	credits *core.RowCreditCounter
	monitor *monitoring.PerformanceMonitor

	outstanding []int
	assigned    []int
	idle        []bool
}

// NewDispatcher creates a dispatcher for workerCount handles drawing from credits
func NewDispatcher(workerCount int, credits *core.RowCreditCounter, monitor *monitoring.PerformanceMonitor) *Dispatcher {
	if monitor == nil {
		monitor = monitoring.NewPerformanceMonitor()
	}
	d := &Dispatcher{
		credits:     credits,
		monitor:     monitor,
		outstanding: make([]int, workerCount),
		assigned:    make([]int, workerCount),
		idle:        make([]bool, workerCount),
	}
	for i := range d.outstanding {
		d.outstanding[i] = noJob
	}
	return d
}

// Dispatch gives h the next unassigned row, or marks it idle when none are
// left. It reports whether a row was assigned.
func (d *Dispatcher) Dispatch(h *workers.Handle) (bool, error) {
	id := h.ID()
	if id < 0 || id >= len(d.outstanding) {
		return false, fmt.Errorf("dispatch to unknown worker %d: %w", id, workers.ErrProtocolViolation)
	}
	if d.outstanding[id] != noJob {
		return false, fmt.Errorf("worker %d still owns row %d: %w", id, d.outstanding[id], workers.ErrProtocolViolation)
	}

	row, ok := d.credits.Next()
	if !ok {
		if !d.idle[id] {
			d.idle[id] = true
			h.MarkIdle()
			d.monitor.WorkerIdle()
		}
		return false, nil
	}

	if err := h.Assign(workers.JobMessage{Row: row}); err != nil {
		return false, err
	}
	d.outstanding[id] = row
	d.assigned[id]++
	d.monitor.RowDispatched()
	return true, nil
}

// Complete clears the worker's outstanding job. The row must be the one it
// was given.
func (d *Dispatcher) Complete(worker, row int) error {
	if worker < 0 || worker >= len(d.outstanding) {
		return fmt.Errorf("result from unknown worker %d: %w", worker, workers.ErrProtocolViolation)
	}
	if d.outstanding[worker] != row {
		return fmt.Errorf("worker %d returned row %d, assigned %d: %w", worker, row, d.outstanding[worker], workers.ErrProtocolViolation)
	}
	d.outstanding[worker] = noJob
	return nil
}

// Freeze stops all further assignment
func (d *Dispatcher) Freeze() {
	d.credits.Freeze()
}

// Assignments returns how many rows each worker was given
func (d *Dispatcher) Assignments() []int {
	out := make([]int, len(d.assigned))
	copy(out, d.assigned)
	return out
}

// Outstanding returns the number of workers currently holding a row
func (d *Dispatcher) Outstanding() int {
	n := 0
	for _, row := range d.outstanding {
		if row != noJob {
			n++
		}
	}
	return n
}
