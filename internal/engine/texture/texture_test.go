package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Faultbox/vmdlview/internal/engine/gpu/gputest"
)

// makeTGA builds an uncompressed 32-bit top-to-bottom TGA.
func makeTGA(w, h int, c color.RGBA) []byte {
	header := make([]byte, 18)
	header[2] = 2 // uncompressed true-color
	header[12] = byte(w)
	header[13] = byte(w >> 8)
	header[14] = byte(h)
	header[15] = byte(h >> 8)
	header[16] = 32
	header[17] = 0x28 // top-to-bottom, 8 alpha bits

	data := header
	for i := 0; i < w*h; i++ {
		data = append(data, c.B, c.G, c.R, c.A)
	}
	return data
}

func makePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		w, h int
		want color.RGBA
	}{
		{"crate_color.tga", makeTGA(4, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255}), 4, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255}},
		{"crate_color.PNG", makePNG(t, 3, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), 3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.name, tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if img.Bounds().Dx() != tt.w || img.Bounds().Dy() != tt.h {
				t.Errorf("size = %v, want %dx%d", img.Bounds(), tt.w, tt.h)
			}
			if got := img.RGBAAt(1, 1); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("crate.vtex_c", []byte{1, 2, 3}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
	if _, err := Decode("crate.png", []byte("not a png")); err == nil {
		t.Error("expected error for corrupt png")
	}
}

func TestToRGBAScalesLargeImages(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, MaxSize*2, 16))
	img := ToRGBA(src)
	if img.Bounds().Dx() != MaxSize || img.Bounds().Dy() != 8 {
		t.Errorf("scaled size = %v, want %dx8", img.Bounds(), MaxSize)
	}
}

func TestToRGBAMovesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 9, 9))
	src.SetRGBA(5, 5, color.RGBA{R: 1, A: 255})

	img := ToRGBA(src)
	if img.Bounds().Min != (image.Point{}) {
		t.Errorf("origin = %v", img.Bounds().Min)
	}
	if img.RGBAAt(0, 0).R != 1 {
		t.Errorf("pixel not moved to origin")
	}
}

func TestErrorImage(t *testing.T) {
	img := ErrorImage()
	if img.RGBAAt(0, 0) != (color.RGBA{R: 255, B: 255, A: 255}) {
		t.Errorf("first cell = %v, want magenta", img.RGBAAt(0, 0))
	}
	if img.RGBAAt(8, 0) != (color.RGBA{A: 255}) {
		t.Errorf("second cell = %v, want black", img.RGBAAt(8, 0))
	}
}

func TestUploadClampsAnisotropy(t *testing.T) {
	dev := gputest.NewRecorder()
	dev.MaxAniso = 4

	tex, err := Upload(dev, ErrorImage(), 16)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if dev.Textures[tex] == nil {
		t.Fatal("texture not created")
	}
	if dev.Anisotropy[tex] != 4 {
		t.Errorf("anisotropy = %v, want 4", dev.Anisotropy[tex])
	}
}
