// Package shader compiles the viewer's GLSL program.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ErrMissingUniform is returned when the linked program lacks a required uniform.
var ErrMissingUniform = errors.New("shader: required uniform not found")

// Program is the compiled viewer program with its uniform locations.
type Program struct {
	ID uint32

	Projection int32
	ModelView  int32
	Texture    int32
	AlphaTest  int32
	AlphaRef   int32
}

// NewProgram compiles and links VertexSource and FragmentSource. The matrix
// uniforms must be active; the others are -1 when the driver strips them.
func NewProgram() (*Program, error) {
	id, err := CompileProgram(VertexSource, FragmentSource)
	if err != nil {
		return nil, fmt.Errorf("viewer program: %w", err)
	}

	p := &Program{
		ID:         id,
		Projection: GetUniform(id, UniformProjection),
		ModelView:  GetUniform(id, UniformModelView),
		Texture:    GetUniform(id, UniformTexture),
		AlphaTest:  GetUniform(id, UniformAlphaTest),
		AlphaRef:   GetUniform(id, UniformAlphaRef),
	}
	for name, loc := range map[string]int32{UniformProjection: p.Projection, UniformModelView: p.ModelView} {
		if loc < 0 {
			p.Delete()
			return nil, fmt.Errorf("%w: %s", ErrMissingUniform, name)
		}
	}
	return p, nil
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// CompileProgram compiles both stages and links them into a program object.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileStage(gl.VERTEX_SHADER, "vertex", vertexSrc)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileStage(gl.FRAGMENT_SHADER, "fragment", fragmentSrc)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)
	gl.DetachShader(program, vert)
	gl.DetachShader(program, frag)

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		var n int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
		msg := infoLog(n, func(buf *uint8) { gl.GetProgramInfoLog(program, n, nil, buf) })
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", msg)
	}
	return program, nil
}

func compileStage(kind uint32, name, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	src, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, src, nil)
	free()
	gl.CompileShader(shader)

	var ok int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		var n int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
		msg := infoLog(n, func(buf *uint8) { gl.GetShaderInfoLog(shader, n, nil, buf) })
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, msg)
	}
	return shader, nil
}

// infoLog reads a driver log of n bytes through read.
func infoLog(n int32, read func(buf *uint8)) string {
	if n <= 0 {
		return "(no log)"
	}
	buf := make([]byte, n)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

// GetUniform returns a uniform location, or -1 if it is inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// GetAttrib returns the location of a vertex input, or -1 if it is inactive.
func GetAttrib(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}
