package rendering

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// BytesPerPixel is the RGBA stride of every row buffer
const BytesPerPixel = 4

var (
	ErrRowLengthMismatch = errors.New("rendering: row length mismatch")
	ErrRowOutOfRange     = errors.New("rendering: row index out of range")
)

// FrameAssembler stitches row buffers into one top-down RGBA framebuffer.
// Rows are indexed bottom-up, so row r lands at (height-r-1)*width*4
// whatever order results arrive in.
type FrameAssembler struct {
	mu       sync.RWMutex
	width    int
	height   int
	pixels   []byte
	applied  []bool
	received int
}

// NewFrameAssembler allocates a zeroed width*height*4 framebuffer
func NewFrameAssembler(width, height int) *FrameAssembler {
	width = max(width, 0)
	height = max(height, 0)
	return &FrameAssembler{
		width:   width,
		height:  height,
		pixels:  make([]byte, width*height*BytesPerPixel),
		applied: make([]bool, height),
	}
}

// RowOffset returns the framebuffer byte offset of a bottom-up row index
func RowOffset(row, width, height int) int {
	return (height - row - 1) * width * BytesPerPixel
}

// ApplyRow copies pixels into the framebuffer slot for row. Applying a row a
// second time overwrites its bytes without counting it again.
func (fa *FrameAssembler) ApplyRow(row int, pixels []byte) error {
	if row < 0 || row >= fa.height {
		return fmt.Errorf("%w: row %d, height %d", ErrRowOutOfRange, row, fa.height)
	}
	rowBytes := fa.width * BytesPerPixel
	if len(pixels) != rowBytes {
		return fmt.Errorf("%w: row %d has %d bytes, want %d", ErrRowLengthMismatch, row, len(pixels), rowBytes)
	}

	offset := RowOffset(row, fa.width, fa.height)

	fa.mu.Lock()
	defer fa.mu.Unlock()
	copy(fa.pixels[offset:offset+rowBytes], pixels)
	if !fa.applied[row] {
		fa.applied[row] = true
		fa.received++
	}
	return nil
}

// Received returns how many distinct rows have been applied
func (fa *FrameAssembler) Received() int {
	fa.mu.RLock()
	defer fa.mu.RUnlock()
	return fa.received
}

// Complete reports whether every row has been applied
func (fa *FrameAssembler) Complete() bool {
	return fa.Received() == fa.height
}

// HasRow reports whether row has been applied
func (fa *FrameAssembler) HasRow(row int) bool {
	if row < 0 || row >= fa.height {
		return false
	}
	fa.mu.RLock()
	defer fa.mu.RUnlock()
	return fa.applied[row]
}

func (fa *FrameAssembler) Width() int {
	return fa.width
}

func (fa *FrameAssembler) Height() int {
	return fa.height
}

// CopyPixels copies the current framebuffer into dst and returns the number
// of bytes copied. The copy may hold a partially rendered frame.
func (fa *FrameAssembler) CopyPixels(dst []byte) int {
	fa.mu.RLock()
	defer fa.mu.RUnlock()
	return copy(dst, fa.pixels)
}

// Snapshot returns a copy of the current framebuffer
func (fa *FrameAssembler) Snapshot() []byte {
	buf := make([]byte, len(fa.pixels))
	fa.CopyPixels(buf)
	return buf
}

// Image returns the current framebuffer as an RGBA image
func (fa *FrameAssembler) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fa.width, fa.height))
	fa.CopyPixels(img.Pix)
	return img
}
