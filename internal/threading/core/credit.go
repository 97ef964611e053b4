package core

import "sync/atomic"

// RowCreditCounter hands out row indices in [0, height) exactly once each.
// Rows are assigned descending, height-1 first. The decrement is a CAS loop so
// the counter never drops below zero, however many callers race on Next.
type RowCreditCounter struct {
	remaining atomic.Int64
	frozen    atomic.Bool
	height    int
}

// NewRowCreditCounter creates a counter holding one credit per row
func NewRowCreditCounter(height int) *RowCreditCounter {
	if height < 0 {
		height = 0
	}
	c := &RowCreditCounter{height: height}
	c.remaining.Store(int64(height))
	return c
}

// Next claims the next unassigned row. ok is false once every row has been
// handed out or the counter has been frozen.
func (c *RowCreditCounter) Next() (row int, ok bool) {
	for {
		if c.frozen.Load() {
			return -1, false
		}
		cur := c.remaining.Load()
		if cur <= 0 {
			return -1, false
		}
		if c.remaining.CompareAndSwap(cur, cur-1) {
			return int(cur - 1), true
		}
	}
}

// Freeze stops any further assignment. Remaining credits are kept as-is.
func (c *RowCreditCounter) Freeze() {
	c.frozen.Store(true)
}

// Frozen reports whether Freeze has been called
func (c *RowCreditCounter) Frozen() bool {
	return c.frozen.Load()
}

// Remaining returns the number of rows not yet assigned
func (c *RowCreditCounter) Remaining() int {
	return int(c.remaining.Load())
}

// Assigned returns the number of rows handed out so far
func (c *RowCreditCounter) Assigned() int {
	return c.height - c.Remaining()
}

// Height returns the total number of credits the counter started with
func (c *RowCreditCounter) Height() int {
	return c.height
}
