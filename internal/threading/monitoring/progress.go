package monitoring

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Percent returns the share of rows received. It depends only on the count,
// never on which rows arrived. An empty frame is 100% done.
func Percent(received, height int) float64 {
	if height <= 0 {
		return 100
	}
	received = min(max(received, 0), height)
	return float64(received) * 100 / float64(height)
}

// FormatProgress renders the per-row status line, e.g. "42.0% complete"
func FormatProgress(received, height int) string {
	return printer.Sprintf("%.1f%% complete", Percent(received, height))
}

// FormatDone renders the completion line, e.g. "done in 1,234.5 ms"
func FormatDone(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	return printer.Sprintf("done in %.1f ms", ms)
}

// Status picks the line for the given point in a session
func Status(received, height int, elapsed time.Duration) string {
	if received >= height {
		return FormatDone(elapsed)
	}
	return FormatProgress(received, height)
}

// ProgressReporter holds the submission timestamp of one session
type ProgressReporter struct {
	start  time.Time
	end    time.Time
	height int
	now    func() time.Time
}

// NewProgressReporter captures the start time for a session of height rows
func NewProgressReporter(height int) *ProgressReporter {
	return newProgressReporter(height, time.Now)
}

func newProgressReporter(height int, now func() time.Time) *ProgressReporter {
	return &ProgressReporter{start: now(), height: height, now: now}
}

// Start returns the captured submission time
func (pr *ProgressReporter) Start() time.Time {
	return pr.start
}

// Finish stops the clock. Later calls keep the first end time.
func (pr *ProgressReporter) Finish() {
	if pr.end.IsZero() {
		pr.end = pr.now()
	}
}

// Elapsed returns the wall-clock time since submission, or the total once
// Finish has been called
func (pr *ProgressReporter) Elapsed() time.Duration {
	if !pr.end.IsZero() {
		return pr.end.Sub(pr.start)
	}
	return pr.now().Sub(pr.start)
}

// Report returns the status line after received rows have been applied
func (pr *ProgressReporter) Report(received int) string {
	return Status(received, pr.height, pr.Elapsed())
}
