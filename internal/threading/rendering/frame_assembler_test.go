package rendering

import (
	"bytes"
	"errors"
	"math/rand"
	"sync"
	"testing"
)

func rowBytes(width, row int) []byte {
	buf := make([]byte, width*BytesPerPixel)
	for i := range buf {
		buf[i] = byte(row*7 + i)
	}
	return buf
}

// =============================================================================
// FRAME ASSEMBLER TESTS
// =============================================================================

func TestApplyRowInvertsOrientation(t *testing.T) {
	const width, height = 3, 4
	fa := NewFrameAssembler(width, height)

	if err := fa.ApplyRow(0, rowBytes(width, 0)); err != nil {
		t.Fatalf("ApplyRow failed: %v", err)
	}

	pix := fa.Snapshot()
	stride := width * BytesPerPixel
	bottom := pix[(height-1)*stride:]
	if !bytes.Equal(bottom, rowBytes(width, 0)) {
		t.Errorf("Expected row 0 at the bottom of the buffer, got %v", bottom)
	}
	if !bytes.Equal(pix[:stride], make([]byte, stride)) {
		t.Error("Expected top row to be untouched")
	}

	if RowOffset(height-1, width, height) != 0 {
		t.Errorf("Expected top row offset 0, got %d", RowOffset(height-1, width, height))
	}
}

func TestApplyRowLengthMismatch(t *testing.T) {
	fa := NewFrameAssembler(2, 2)
	err := fa.ApplyRow(1, make([]byte, 7))
	if !errors.Is(err, ErrRowLengthMismatch) {
		t.Errorf("Expected ErrRowLengthMismatch, got %v", err)
	}
	if fa.Received() != 0 {
		t.Errorf("Expected nothing received, got %d", fa.Received())
	}
}

func TestApplyRowOutOfRange(t *testing.T) {
	fa := NewFrameAssembler(2, 2)
	for _, row := range []int{-1, 2} {
		if err := fa.ApplyRow(row, make([]byte, 8)); !errors.Is(err, ErrRowOutOfRange) {
			t.Errorf("Expected ErrRowOutOfRange for row %d, got %v", row, err)
		}
	}
}

func TestApplyRowDuplicateOverwrites(t *testing.T) {
	fa := NewFrameAssembler(1, 2)
	fa.ApplyRow(1, []byte{1, 1, 1, 1})
	fa.ApplyRow(1, []byte{9, 9, 9, 9})

	if fa.Received() != 1 {
		t.Errorf("Expected duplicate to count once, got %d", fa.Received())
	}
	if got := fa.Snapshot()[:4]; !bytes.Equal(got, []byte{9, 9, 9, 9}) {
		t.Errorf("Expected second write to win, got %v", got)
	}
}

func TestFrameAssemblerOrderIndependent(t *testing.T) {
	const width, height = 5, 40

	reference := NewFrameAssembler(width, height)
	for row := 0; row < height; row++ {
		reference.ApplyRow(row, rowBytes(width, row))
	}
	want := reference.Snapshot()

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		fa := NewFrameAssembler(width, height)
		for _, row := range rng.Perm(height) {
			if err := fa.ApplyRow(row, rowBytes(width, row)); err != nil {
				t.Fatalf("ApplyRow failed: %v", err)
			}
		}
		if !fa.Complete() {
			t.Errorf("Expected complete frame on trial %d", trial)
		}
		if !bytes.Equal(fa.Snapshot(), want) {
			t.Fatalf("Expected identical framebuffer for permutation on trial %d", trial)
		}
	}
}

func TestFrameAssemblerConcurrentApply(t *testing.T) {
	const width, height = 8, 200
	fa := NewFrameAssembler(width, height)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for row := w; row < height; row += 4 {
				fa.ApplyRow(row, rowBytes(width, row))
				_ = fa.Image()
			}
		}(w)
	}
	wg.Wait()

	if fa.Received() != height {
		t.Errorf("Expected %d rows, got %d", height, fa.Received())
	}
	for row := 0; row < height; row++ {
		if !fa.HasRow(row) {
			t.Errorf("Expected row %d applied", row)
		}
	}
}

func TestFrameAssemblerZeroHeight(t *testing.T) {
	fa := NewFrameAssembler(10, 0)
	if !fa.Complete() {
		t.Error("Expected zero-height frame to be complete")
	}
	if img := fa.Image(); img.Bounds().Dy() != 0 {
		t.Errorf("Expected empty image, got %v", img.Bounds())
	}
}
