package workers

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrPoolCreation      = errors.New("workers: worker count must be at least 1")
	ErrHandshakeTimeout  = errors.New("workers: readiness handshake timed out")
	ErrProtocolViolation = errors.New("workers: protocol violation")
	ErrHandleTerminated  = errors.New("workers: handle terminated")
)

// HandshakeTimeoutError reports the first worker that did not signal ready
// within the bound.
type HandshakeTimeoutError struct {
	Worker  int
	Timeout time.Duration
}

func (e *HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("worker %d did not report ready within %s", e.Worker, e.Timeout)
}

func (e *HandshakeTimeoutError) Unwrap() error {
	return ErrHandshakeTimeout
}
