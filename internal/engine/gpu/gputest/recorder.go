// Package gputest provides a gpu.Device that records calls instead of
// drawing, for tests of draw compilation and frame rendering.
package gputest

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/pkg/math"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("gputest: injected failure")

// Draw is one recorded DrawIndexed call with the state active at that time.
type Draw struct {
	Count       uint32
	IndexWidth  int
	ByteOffset  uintptr
	BaseVertex  int32
	VertexArray gpu.VertexArray
	Texture     gpu.Texture
	Blend       bool
	AlphaTest   bool
	AlphaRef    float32
}

// AttribPointer is one recorded VertexAttribPointer call.
type AttribPointer struct {
	VertexArray gpu.VertexArray
	Buffer      gpu.Buffer
	Location    uint32
	Size        int32
	Type        gpu.AttribType
	Normalized  bool
	Stride      int32
	Offset      uintptr
}

// Recorder implements gpu.Device in memory.
type Recorder struct {
	// Locations maps shader input names to locations. Missing names are -1.
	Locations map[string]int32
	// FailVertexArrayAfter makes CreateVertexArray fail once this many arrays exist. Zero disables.
	FailVertexArrayAfter int
	// FailBuffers makes CreateBuffer fail.
	FailBuffers bool
	MaxAniso    float32

	Buffers      map[gpu.Buffer][]byte
	VertexArrays map[gpu.VertexArray]bool
	Textures     map[gpu.Texture]*image.RGBA
	Anisotropy   map[gpu.Texture]float32
	Pointers     []AttribPointer
	Enabled      map[uint32]bool
	Draws        []Draw
	Matrices     map[gpu.Uniform]math.Mat4
	Calls        []string

	next        uint32
	boundVAO    gpu.VertexArray
	boundArray  gpu.Buffer
	boundIndex  gpu.Buffer
	boundTex    gpu.Texture
	blend       bool
	alphaTest   bool
	alphaRef    float32
	clearColor  [4]float32
	viewport    [2]int
	createdVAOs int
}

// NewRecorder returns a recorder with the default viewer input locations.
func NewRecorder() *Recorder {
	return &Recorder{
		Locations: map[string]int32{
			"vPosition": 0,
			"vNormal":   1,
			"vTexCoord": 2,
		},
		MaxAniso:     16,
		Buffers:      map[gpu.Buffer][]byte{},
		VertexArrays: map[gpu.VertexArray]bool{},
		Textures:     map[gpu.Texture]*image.RGBA{},
		Anisotropy:   map[gpu.Texture]float32{},
		Enabled:      map[uint32]bool{},
		Matrices:     map[gpu.Uniform]math.Mat4{},
	}
}

func (r *Recorder) record(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) CreateBuffer(target gpu.BufferTarget, data []byte) (gpu.Buffer, error) {
	if r.FailBuffers {
		return 0, ErrInjected
	}
	b := gpu.Buffer(r.handle())
	r.Buffers[b] = append([]byte(nil), data...)
	r.record("CreateBuffer %d", b)
	return b, nil
}

func (r *Recorder) DeleteBuffer(b gpu.Buffer) {
	delete(r.Buffers, b)
	r.record("DeleteBuffer %d", b)
}

func (r *Recorder) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	if target == gpu.ElementArrayBuffer {
		r.boundIndex = b
	} else {
		r.boundArray = b
	}
	r.record("BindBuffer %d %d", target, b)
}

func (r *Recorder) CreateVertexArray() (gpu.VertexArray, error) {
	if r.FailVertexArrayAfter > 0 && r.createdVAOs >= r.FailVertexArrayAfter {
		return 0, ErrInjected
	}
	r.createdVAOs++
	v := gpu.VertexArray(r.handle())
	r.VertexArrays[v] = true
	r.record("CreateVertexArray %d", v)
	return v, nil
}

func (r *Recorder) DeleteVertexArray(v gpu.VertexArray) {
	delete(r.VertexArrays, v)
	r.record("DeleteVertexArray %d", v)
}

func (r *Recorder) BindVertexArray(v gpu.VertexArray) {
	r.boundVAO = v
	r.record("BindVertexArray %d", v)
}

func (r *Recorder) AttribLocation(name string) int32 {
	if loc, ok := r.Locations[name]; ok {
		return loc
	}
	return -1
}

func (r *Recorder) EnableVertexAttrib(location uint32) {
	r.Enabled[location] = true
}

func (r *Recorder) VertexAttribPointer(location uint32, size int32, typ gpu.AttribType, normalized bool, stride int32, offset uintptr) {
	r.Pointers = append(r.Pointers, AttribPointer{
		VertexArray: r.boundVAO,
		Buffer:      r.boundArray,
		Location:    location,
		Size:        size,
		Type:        typ,
		Normalized:  normalized,
		Stride:      stride,
		Offset:      offset,
	})
}

func (r *Recorder) CreateTexture(img *image.RGBA, anisotropy float32) (gpu.Texture, error) {
	t := gpu.Texture(r.handle())
	r.Textures[t] = img
	r.Anisotropy[t] = anisotropy
	r.record("CreateTexture %d", t)
	return t, nil
}

func (r *Recorder) DeleteTexture(t gpu.Texture) {
	delete(r.Textures, t)
}

func (r *Recorder) BindTexture(t gpu.Texture) {
	r.boundTex = t
}

func (r *Recorder) MaxAnisotropy() float32 {
	return r.MaxAniso
}

func (r *Recorder) SetBlend(enabled bool) {
	r.blend = enabled
	r.record("SetBlend %v", enabled)
}

func (r *Recorder) SetAlphaTest(enabled bool, ref float32) {
	r.alphaTest = enabled
	r.alphaRef = ref
	r.record("SetAlphaTest %v", enabled)
}

func (r *Recorder) SetMatrix(u gpu.Uniform, m math.Mat4) {
	r.Matrices[u] = m
}

func (r *Recorder) DrawIndexed(count uint32, indexWidth int, byteOffset uintptr, baseVertex int32) {
	r.Draws = append(r.Draws, Draw{
		Count:       count,
		IndexWidth:  indexWidth,
		ByteOffset:  byteOffset,
		BaseVertex:  baseVertex,
		VertexArray: r.boundVAO,
		Texture:     r.boundTex,
		Blend:       r.blend,
		AlphaTest:   r.alphaTest,
		AlphaRef:    r.alphaRef,
	})
	r.record("DrawIndexed %d", count)
}

func (r *Recorder) SetClearColor(red, green, blue, alpha float32) {
	r.clearColor = [4]float32{red, green, blue, alpha}
}

func (r *Recorder) Clear() {
	r.record("Clear")
}

func (r *Recorder) Viewport(width, height int) {
	r.viewport = [2]int{width, height}
}

// ViewportSize returns the last viewport set.
func (r *Recorder) ViewportSize() (int, int) {
	return r.viewport[0], r.viewport[1]
}

// ReadPixels returns an opaque gradient image of the requested size.
func (r *Recorder) ReadPixels(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInjected
	}
	pixels := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pixels[i] = byte(x)
			pixels[i+1] = byte(y)
			pixels[i+3] = 255
		}
	}
	return pixels, nil
}

// Blend reports whether blending is currently enabled.
func (r *Recorder) Blend() bool {
	return r.blend
}

// AlphaTest reports whether alpha testing is currently enabled.
func (r *Recorder) AlphaTest() bool {
	return r.alphaTest
}

// Bound returns the currently bound vertex array, vertex buffer, index buffer and texture.
func (r *Recorder) Bound() (gpu.VertexArray, gpu.Buffer, gpu.Buffer, gpu.Texture) {
	return r.boundVAO, r.boundArray, r.boundIndex, r.boundTex
}

var _ gpu.Device = (*Recorder)(nil)
