package viewer

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"sort"
	"sync"
	"time"

	"rayrows/internal/threading/monitoring"
	"rayrows/internal/threading/rendering"
	"rayrows/internal/threading/session"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebitext "github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	statusBackground = color.RGBA{0, 0, 0, 160}
	statusText       = color.RGBA{230, 230, 230, 255}
	failureText      = color.RGBA{255, 96, 96, 255}
)

// Viewer shows the frame of the running session in a window. It is the
// ebiten.Game and the session Presenter at the same time: callbacks from the
// session goroutine only record state, and Draw turns that state into
// pixels on the ebiten goroutine.
type Viewer struct {
	sessions *session.Manager
	base     session.Request
	scale    int
	logger   *log.Logger

	mu       sync.Mutex
	frame    *rendering.FrameAssembler
	dirty    bool
	progress string
	failure  string
	elapsed  time.Duration

	pixels    []byte
	image     *ebiten.Image
	showStats bool
}

// New creates a viewer. base is submitted with the viewer as presenter
// whenever a render is requested.
func New(sessions *session.Manager, base session.Request, scale int, logger *log.Logger) *Viewer {
	if scale <= 0 {
		scale = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Viewer{
		sessions: sessions,
		base:     base,
		scale:    scale,
		logger:   logger,
	}
}

// Submit starts a new render, cancelling the current one
func (v *Viewer) Submit() error {
	v.mu.Lock()
	v.progress = ""
	v.failure = ""
	v.elapsed = 0
	v.mu.Unlock()

	req := v.base
	req.Presenter = v
	if _, err := v.sessions.Submit(context.Background(), req); err != nil {
		v.OnFailure(err.Error())
		return err
	}
	return nil
}

// OnPartialFrame marks the frame for upload on the next Draw
func (v *Viewer) OnPartialFrame(frame *rendering.FrameAssembler) {
	v.mu.Lock()
	v.frame = frame
	v.dirty = true
	v.mu.Unlock()
}

func (v *Viewer) OnProgress(text string) {
	v.mu.Lock()
	v.progress = text
	v.mu.Unlock()
}

func (v *Viewer) OnComplete(frame *rendering.FrameAssembler, elapsed time.Duration) {
	v.mu.Lock()
	v.frame = frame
	v.dirty = true
	v.elapsed = elapsed
	v.mu.Unlock()
}

func (v *Viewer) OnFailure(message string) {
	v.mu.Lock()
	v.failure = "Something went wrong! " + message
	v.mu.Unlock()
}

// Update handles input
func (v *Viewer) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR), inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		if err := v.Submit(); err != nil {
			v.logger.Printf("Warning: failed to start render: %v", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		v.sessions.Cancel()
		v.OnProgress("cancelled")
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		v.showStats = !v.showStats
	}
	return nil
}

// Draw uploads the latest frame if it changed and draws it with the status
// line on top
func (v *Viewer) Draw(screen *ebiten.Image) {
	v.uploadFrame()

	if v.image != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(v.scale), float64(v.scale))
		screen.DrawImage(v.image, op)
	}

	lines, clr := v.overlayLines()
	drawTextBlock(screen, 4, 4, lines, clr)
}

// Layout keeps a fixed logical size of the frame times the scale
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := v.base.Width*v.scale, v.base.Height*v.scale
	if w <= 0 || h <= 0 {
		return outsideWidth, outsideHeight
	}
	return w, h
}

func (v *Viewer) uploadFrame() {
	v.mu.Lock()
	frame, dirty := v.frame, v.dirty
	v.dirty = false
	v.mu.Unlock()

	if !dirty || frame == nil || frame.Width() == 0 || frame.Height() == 0 {
		return
	}

	size := frame.Width() * frame.Height() * rendering.BytesPerPixel
	if v.image == nil || v.image.Bounds().Dx() != frame.Width() || v.image.Bounds().Dy() != frame.Height() {
		v.image = ebiten.NewImage(frame.Width(), frame.Height())
		v.pixels = make([]byte, size)
	}
	frame.CopyPixels(v.pixels)
	v.image.WritePixels(v.pixels)
}

// statusLines returns the text to show and its color
func (v *Viewer) statusLines() ([]string, color.Color) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.failure != "" {
		return []string{v.failure}, failureText
	}
	if v.progress == "" {
		return []string{"R/Enter: render  Esc: cancel  F3: stats"}, statusText
	}
	return []string{v.progress}, statusText
}

// overlayLines is the status line plus, with F3 on, alerts and stats
func (v *Viewer) overlayLines() ([]string, color.Color) {
	lines, clr := v.statusLines()
	if v.showStats {
		monitor := v.sessions.Monitor()
		lines = append(lines, alertLines(monitor)...)
		lines = append(lines, statsLines(monitor)...)
	}
	return lines, clr
}

func alertLines(monitor *monitoring.PerformanceMonitor) []string {
	alerts := monitor.CheckPerformanceAlerts()
	lines := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		lines = append(lines, fmt.Sprintf("! %s (%.1f)", alert.Message, alert.Value))
	}
	return lines
}

func statsLines(monitor *monitoring.PerformanceMonitor) []string {
	stats := monitor.GetDetailedStats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		switch val := stats[k].(type) {
		case float64:
			lines = append(lines, fmt.Sprintf("%s: %.2f", k, val))
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", k, val))
		}
	}
	return lines
}

func drawTextBlock(screen *ebiten.Image, x, y int, lines []string, clr color.Color) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()

	width := 0
	for _, line := range lines {
		width = max(width, font.MeasureString(face, line).Round())
	}
	vector.DrawFilledRect(screen, float32(x-2), float32(y-2), float32(width+4), float32(lineHeight*len(lines)+4), statusBackground, false)

	baseline := y + face.Ascent
	for _, line := range lines {
		ebitext.Draw(screen, line, face, x, baseline, clr)
		baseline += lineHeight
	}
}
