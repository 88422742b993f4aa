// Package debug provides viewer debugging utilities.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
)

// ErrUnknownFormat is returned for screenshot formats other than png and webp.
var ErrUnknownFormat = errors.New("unknown screenshot format")

type encodeFunc func(w io.Writer, img image.Image) error

var encoders = map[string]encodeFunc{
	"png":  png.Encode,
	"webp": func(w io.Writer, img image.Image) error { return nativewebp.Encode(w, img, nil) },
}

// ScreenshotCapture handles screenshot capture functionality.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	format    string
	now       func() time.Time
}

// NewScreenshotCapture creates a screenshot handler writing png or webp files.
func NewScreenshotCapture(outputDir, prefix, format string) (*ScreenshotCapture, error) {
	if _, ok := encoders[format]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    format,
		now:       time.Now,
	}, nil
}

// Capture reads the back buffer from dev and saves it.
func (sc *ScreenshotCapture) Capture(dev gpu.Device, width, height int) (string, error) {
	pixels, err := dev.ReadPixels(width, height)
	if err != nil {
		return "", fmt.Errorf("reading pixels: %w", err)
	}
	return sc.CaptureFromPixels(pixels, width, height)
}

// CaptureFromPixels captures a screenshot from raw pixel data.
// pixels should be in RGBA format with width*height*4 bytes.
// The image is flipped vertically since OpenGL has origin at bottom-left.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}

	return sc.CaptureFromImage(img)
}

// CaptureFromImage saves an existing image.
func (sc *ScreenshotCapture) CaptureFromImage(img image.Image) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.GenerateFilename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := encoders[sc.format](file, img); err != nil {
		return "", fmt.Errorf("encoding %s: %w", sc.format, err)
	}
	return filename, nil
}

// GenerateFilename generates a screenshot filename without saving.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.%s", sc.prefix, timestamp, sc.format)
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}
