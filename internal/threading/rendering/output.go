package rendering

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WritePPM writes the frame as a plain-text P3 image, top row first. Alpha
// is dropped.
func WritePPM(w io.Writer, fa *FrameAssembler) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P3\n%d %d\n255\n", fa.Width(), fa.Height())

	pixels := fa.Snapshot()
	for i := 0; i+BytesPerPixel <= len(pixels); i += BytesPerPixel {
		fmt.Fprintf(bw, "%d %d %d\n", pixels[i], pixels[i+1], pixels[i+2])
	}
	return bw.Flush()
}

// WritePNG writes the frame as a PNG
func WritePNG(w io.Writer, fa *FrameAssembler) error {
	return png.Encode(w, fa.Image())
}

// SaveFrame writes the frame to path, choosing PPM for a .ppm extension and
// PNG otherwise. Missing parent directories are created.
func SaveFrame(path string, fa *FrameAssembler) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	write := WritePNG
	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		write = WritePPM
	}
	if err := write(f, fa); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
