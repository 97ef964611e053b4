package session

import (
	"errors"
	"fmt"
)

var (
	ErrSessionCancelled = errors.New("session: cancelled")
	ErrSessionStarted   = errors.New("session: already started")
	ErrInvalidRequest   = errors.New("session: invalid request")
)

// WorkerReportedError is a fault raised by a worker, either an error event or
// a result the assembler rejected. Message is what the worker said.
type WorkerReportedError struct {
	Worker  int
	Row     int
	Message string
	Err     error
}

func (e *WorkerReportedError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("worker %d failed on row %d: %s", e.Worker, e.Row, e.Message)
	}
	return fmt.Sprintf("worker %d failed: %s", e.Worker, e.Message)
}

func (e *WorkerReportedError) Unwrap() error {
	return e.Err
}

// failureMessage is the text handed to the presenter. Worker faults are
// passed through verbatim.
func failureMessage(err error) string {
	var wre *WorkerReportedError
	if errors.As(err, &wre) {
		return wre.Message
	}
	return err.Error()
}
