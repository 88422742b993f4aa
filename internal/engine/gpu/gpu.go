// Package gpu abstracts the graphics calls the viewer makes so that draw
// compilation and frame rendering can run against OpenGL or a recorder.
package gpu

import (
	"image"

	"github.com/Faultbox/vmdlview/pkg/math"
)

// Buffer is a GPU buffer handle. Zero is never a valid buffer.
type Buffer uint32

// VertexArray is a vertex layout handle. Zero unbinds.
type VertexArray uint32

// Texture is a texture handle. Zero unbinds.
type Texture uint32

// BufferTarget selects the binding point of a buffer.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// AttribType is the component type of a vertex attribute.
type AttribType int

const (
	Float AttribType = iota
	HalfFloat
	UnsignedByte
	Byte
	UnsignedShort
	Short
	UnsignedInt
	Int
)

// Shader input names that vertex layouts bind to.
const (
	InputPosition = "vPosition"
	InputNormal   = "vNormal"
	InputTexCoord = "vTexCoord"
)

// Uniform names a matrix uniform of the viewer program.
type Uniform int

const (
	Projection Uniform = iota
	ModelView
)

// Device is the set of graphics operations used by the viewer. All calls
// must happen on the goroutine that owns the graphics context.
type Device interface {
	CreateBuffer(target BufferTarget, data []byte) (Buffer, error)
	DeleteBuffer(b Buffer)
	BindBuffer(target BufferTarget, b Buffer)

	CreateVertexArray() (VertexArray, error)
	DeleteVertexArray(v VertexArray)
	BindVertexArray(v VertexArray)

	// AttribLocation returns the location of a named shader input, or -1.
	AttribLocation(name string) int32
	EnableVertexAttrib(location uint32)
	VertexAttribPointer(location uint32, size int32, typ AttribType, normalized bool, stride int32, offset uintptr)

	CreateTexture(img *image.RGBA, anisotropy float32) (Texture, error)
	DeleteTexture(t Texture)
	BindTexture(t Texture)
	MaxAnisotropy() float32

	// SetBlend toggles src-alpha / one-minus-src-alpha blending.
	SetBlend(enabled bool)
	// SetAlphaTest toggles discarding fragments with alpha below ref.
	SetAlphaTest(enabled bool, ref float32)
	SetMatrix(u Uniform, m math.Mat4)

	// DrawIndexed draws count indices of indexWidth bytes starting at
	// byteOffset in the bound index buffer, adding baseVertex to each index.
	DrawIndexed(count uint32, indexWidth int, byteOffset uintptr, baseVertex int32)

	SetClearColor(r, g, b, a float32)
	Clear()
	Viewport(width, height int)
	// ReadPixels returns the back buffer as tightly packed RGBA rows, bottom row first.
	ReadPixels(width, height int) ([]byte, error)
}
