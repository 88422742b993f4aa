// Package texture provides image decoding and texture upload utilities.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
)

// MaxSize is the largest texture edge uploaded; bigger images are scaled down.
const MaxSize = 4096

// ErrUnsupported is returned for image types Decode cannot read.
var ErrUnsupported = errors.New("texture: unsupported image format")

// Extensions lists the loose image types Decode accepts, in lookup order.
var Extensions = []string{".tga", ".png", ".bmp", ".webp", ".jpg", ".jpeg"}

type decodeFunc func(r *bytes.Reader) (image.Image, error)

var decoders = map[string]decodeFunc{
	".tga":  func(r *bytes.Reader) (image.Image, error) { return tga.Decode(r) },
	".png":  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
	".bmp":  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
	".webp": func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) },
	".jpg":  func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) },
	".jpeg": func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) },
}

// Decode decodes image data, choosing the decoder from the file name's extension.
func Decode(name string, data []byte) (*image.RGBA, error) {
	ext := strings.ToLower(path.Ext(name))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image to RGBA with its origin at (0, 0), scaling it
// down to fit MaxSize.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > MaxSize || h > MaxSize {
		scale := float64(MaxSize) / float64(max(w, h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ErrorImage returns the magenta and black checkerboard drawn for missing textures.
func ErrorImage() *image.RGBA {
	const size, cell = 64, 8
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	magenta := color.RGBA{R: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, magenta)
			} else {
				img.SetRGBA(x, y, black)
			}
		}
	}
	return img
}

// Upload creates a mipmapped texture, clamping anisotropy to what the device supports.
func Upload(dev gpu.Device, img *image.RGBA, anisotropy float32) (gpu.Texture, error) {
	if limit := dev.MaxAnisotropy(); anisotropy > limit {
		anisotropy = limit
	}
	tex, err := dev.CreateTexture(img, anisotropy)
	if err != nil {
		return 0, fmt.Errorf("uploading texture: %w", err)
	}
	return tex, nil
}
