package workers

import (
	"fmt"
	"time"
)

// Scene is the serialized scene broadcast to every worker. The coordinator
// never looks inside it.
type Scene []byte

// InitMessage is sent once to every worker after its readiness handshake
type InitMessage struct {
	Width  int
	Height int
	Scene  Scene
}

// JobMessage asks a worker to render a single row
type JobMessage struct {
	Row int
}

// EventKind identifies what a worker is reporting back
type EventKind int

const (
	// EventReady means the worker has applied its InitMessage and accepts jobs
	EventReady EventKind = iota
	EventResult
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is the only thing workers send to the coordinator. All handles in a
// pool share one fan-in channel of events.
type Event struct {
	Kind    EventKind
	Session uint64
	Worker  int

	// Row and Pixels are set for EventResult, Row also for an EventError
	// raised while rendering (it is -1 otherwise).
	Row    int
	Pixels []byte

	// Message carries the worker-reported fault for EventError
	Message string

	// Elapsed is the time the worker spent on the row
	Elapsed time.Duration
}
