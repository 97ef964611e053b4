package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"rayrows/internal/threading/core"
	"rayrows/internal/threading/monitoring"
	"rayrows/internal/threading/workers"
)

func readyPool(t *testing.T, count int) *workers.Pool {
	t.Helper()
	p, err := workers.NewPool(count, plainFactory(), 1, quietLogger)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(p.Terminate)
	if err := p.AwaitAllReady(context.Background(), time.Second); err != nil {
		t.Fatalf("AwaitAllReady failed: %v", err)
	}
	if err := p.BroadcastInit(workers.InitMessage{Width: 1, Height: 2}); err != nil {
		t.Fatalf("BroadcastInit failed: %v", err)
	}
	return p
}

func TestDispatcherAssignsEachRowOnce(t *testing.T) {
	p := readyPool(t, 2)
	monitor := monitoring.NewPerformanceMonitor()
	d := NewDispatcher(2, core.NewRowCreditCounter(2), monitor)

	h0, h1 := p.Handle(0), p.Handle(1)
	if ok, err := d.Dispatch(h0); !ok || err != nil {
		t.Fatalf("Expected row for worker 0, got ok=%v err=%v", ok, err)
	}
	if ok, err := d.Dispatch(h1); !ok || err != nil {
		t.Fatalf("Expected row for worker 1, got ok=%v err=%v", ok, err)
	}
	if d.Outstanding() != 2 {
		t.Errorf("Expected 2 outstanding jobs, got %d", d.Outstanding())
	}

	// Worker 0 got the highest row first
	if err := d.Complete(0, 0); !errors.Is(err, workers.ErrProtocolViolation) {
		t.Errorf("Expected mismatch on wrong row, got %v", err)
	}
	if err := d.Complete(0, 1); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	ok, err := d.Dispatch(h0)
	if ok || err != nil {
		t.Errorf("Expected worker 0 to go idle, got ok=%v err=%v", ok, err)
	}
	if h0.State() != workers.StateIdle {
		t.Errorf("Expected idle handle, got %s", h0.State())
	}
	if got := d.Assignments(); got[0] != 1 || got[1] != 1 {
		t.Errorf("Expected one row each, got %v", got)
	}
	if monitor.GetCurrentMetrics().Dispatched != 2 {
		t.Errorf("Expected 2 dispatched rows, got %d", monitor.GetCurrentMetrics().Dispatched)
	}
}

func TestDispatcherRejectsSecondOutstandingJob(t *testing.T) {
	p := readyPool(t, 1)
	d := NewDispatcher(1, core.NewRowCreditCounter(5), nil)

	if _, err := d.Dispatch(p.Handle(0)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if _, err := d.Dispatch(p.Handle(0)); !errors.Is(err, workers.ErrProtocolViolation) {
		t.Errorf("Expected ErrProtocolViolation, got %v", err)
	}
}

func TestDispatcherFreeze(t *testing.T) {
	p := readyPool(t, 1)
	d := NewDispatcher(1, core.NewRowCreditCounter(5), nil)
	d.Freeze()

	ok, err := d.Dispatch(p.Handle(0))
	if ok || err != nil {
		t.Errorf("Expected no assignment after freeze, got ok=%v err=%v", ok, err)
	}
}
