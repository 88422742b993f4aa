// Package opengl implements gpu.Device with OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/internal/engine/shader"
	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/math"
)

// GL implements gpu.Device with OpenGL 4.1 core and the viewer shader program.
type GL struct {
	program       *shader.Program
	maxAnisotropy float32
}

// New initializes OpenGL and compiles the viewer program.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.NewProgram()
	if err != nil {
		return nil, err
	}

	d := &GL{program: program}
	gl.GetFloatv(gl.MAX_TEXTURE_MAX_ANISOTROPY, &d.maxAnisotropy)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.UseProgram(program.ID)
	gl.Uniform1i(program.Texture, 0)
	gl.Uniform1i(program.AlphaTest, 0)

	return d, nil
}

// Close releases the shader program.
func (d *GL) Close() {
	d.program.Delete()
}

func glTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (d *GL) CreateBuffer(target gpu.BufferTarget, data []byte) (gpu.Buffer, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenBuffers returned no buffer")
	}
	gl.BindBuffer(glTarget(target), id)
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(glTarget(target), len(data), ptr, gl.STATIC_DRAW)
	gl.BindBuffer(glTarget(target), 0)
	return gpu.Buffer(id), nil
}

func (d *GL) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (d *GL) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	gl.BindBuffer(glTarget(target), uint32(b))
}

func (d *GL) CreateVertexArray() (gpu.VertexArray, error) {
	var id uint32
	gl.GenVertexArrays(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenVertexArrays returned no vertex array")
	}
	return gpu.VertexArray(id), nil
}

func (d *GL) DeleteVertexArray(v gpu.VertexArray) {
	id := uint32(v)
	gl.DeleteVertexArrays(1, &id)
}

func (d *GL) BindVertexArray(v gpu.VertexArray) {
	gl.BindVertexArray(uint32(v))
}

func (d *GL) AttribLocation(name string) int32 {
	return shader.GetAttrib(d.program.ID, name)
}

func (d *GL) EnableVertexAttrib(location uint32) {
	gl.EnableVertexAttribArray(location)
}

var glAttribTypes = map[gpu.AttribType]uint32{
	gpu.Float:         gl.FLOAT,
	gpu.HalfFloat:     gl.HALF_FLOAT,
	gpu.UnsignedByte:  gl.UNSIGNED_BYTE,
	gpu.Byte:          gl.BYTE,
	gpu.UnsignedShort: gl.UNSIGNED_SHORT,
	gpu.Short:         gl.SHORT,
	gpu.UnsignedInt:   gl.UNSIGNED_INT,
	gpu.Int:           gl.INT,
}

func (d *GL) VertexAttribPointer(location uint32, size int32, typ gpu.AttribType, normalized bool, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(location, size, glAttribTypes[typ], normalized, stride, offset)
}

func (d *GL) CreateTexture(img *image.RGBA, anisotropy float32) (gpu.Texture, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("empty texture image")
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	if anisotropy > 1 {
		gl.TexParameterf(gl.TEXTURE_2D, gl.TEXTURE_MAX_ANISOTROPY, anisotropy)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return gpu.Texture(id), nil
}

func (d *GL) DeleteTexture(t gpu.Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *GL) BindTexture(t gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *GL) MaxAnisotropy() float32 {
	return d.maxAnisotropy
}

func (d *GL) SetBlend(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		return
	}
	gl.Disable(gl.BLEND)
}

func (d *GL) SetAlphaTest(enabled bool, ref float32) {
	if enabled {
		gl.Uniform1i(d.program.AlphaTest, 1)
		gl.Uniform1f(d.program.AlphaRef, ref)
		return
	}
	gl.Uniform1i(d.program.AlphaTest, 0)
}

func (d *GL) SetMatrix(u gpu.Uniform, m math.Mat4) {
	loc := d.program.Projection
	if u == gpu.ModelView {
		loc = d.program.ModelView
	}
	gl.UniformMatrix4fv(loc, 1, false, m.Ptr())
}

func (d *GL) DrawIndexed(count uint32, indexWidth int, byteOffset uintptr, baseVertex int32) {
	typ := uint32(gl.UNSIGNED_SHORT)
	if indexWidth == 4 {
		typ = gl.UNSIGNED_INT
	}
	gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(count), typ, gl.PtrOffset(int(byteOffset)), baseVertex)
}

func (d *GL) SetClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *GL) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *GL) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *GL) ReadPixels(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid read size %dx%d", width, height)
	}
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("glReadPixels failed: 0x%x", code)
	}
	return pixels, nil
}

var _ gpu.Device = (*GL)(nil)
