package session

import (
	"log"
	"time"

	"rayrows/internal/threading/rendering"
	"rayrows/internal/threading/workers"
)

// Presenter receives the session's output. Calls come from the session's
// coordinator goroutine; implementations must not block for long and must
// not call back into the Manager that owns the session.
type Presenter interface {
	OnPartialFrame(frame *rendering.FrameAssembler)
	OnProgress(text string)
	OnComplete(frame *rendering.FrameAssembler, elapsed time.Duration)
	OnFailure(message string)
}

// SceneSource produces the scene broadcast to every worker, once per session
type SceneSource interface {
	GenerateScene() (workers.Scene, error)
}

// SceneFunc adapts a plain function to SceneSource
type SceneFunc func() (workers.Scene, error)

func (f SceneFunc) GenerateScene() (workers.Scene, error) {
	return f()
}

// PresenterFuncs is a Presenter built from optional callbacks
type PresenterFuncs struct {
	PartialFrame func(frame *rendering.FrameAssembler)
	Progress     func(text string)
	Complete     func(frame *rendering.FrameAssembler, elapsed time.Duration)
	Failure      func(message string)
}

func (p PresenterFuncs) OnPartialFrame(frame *rendering.FrameAssembler) {
	if p.PartialFrame != nil {
		p.PartialFrame(frame)
	}
}

func (p PresenterFuncs) OnProgress(text string) {
	if p.Progress != nil {
		p.Progress(text)
	}
}

func (p PresenterFuncs) OnComplete(frame *rendering.FrameAssembler, elapsed time.Duration) {
	if p.Complete != nil {
		p.Complete(frame, elapsed)
	}
}

func (p PresenterFuncs) OnFailure(message string) {
	if p.Failure != nil {
		p.Failure(message)
	}
}

const logProgressInterval = 500 * time.Millisecond

// LogPresenter writes progress and outcome lines to a logger. Progress lines
// are throttled to one per logProgressInterval.
type LogPresenter struct {
	logger  *log.Logger
	lastLog time.Time
}

// NewLogPresenter returns a presenter that logs to l, or log.Default()
func NewLogPresenter(l *log.Logger) *LogPresenter {
	if l == nil {
		l = log.Default()
	}
	return &LogPresenter{logger: l}
}

func (p *LogPresenter) OnPartialFrame(*rendering.FrameAssembler) {}

func (p *LogPresenter) OnProgress(text string) {
	now := time.Now()
	if !p.lastLog.IsZero() && now.Sub(p.lastLog) < logProgressInterval {
		return
	}
	p.lastLog = now
	p.logger.Println(text)
}

func (p *LogPresenter) OnComplete(frame *rendering.FrameAssembler, elapsed time.Duration) {
	p.logger.Printf("frame complete: %dx%d in %s", frame.Width(), frame.Height(), elapsed.Round(time.Millisecond))
}

func (p *LogPresenter) OnFailure(message string) {
	p.logger.Printf("Something went wrong! %s", message)
}
