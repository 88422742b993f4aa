// Package mesh compiles the draw calls of a model resource into GPU-ready
// draw commands.
package mesh

import (
	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/internal/engine/material"
	"github.com/Faultbox/vmdlview/pkg/math"
)

// PrimitiveTriangles is the only supported primitive type.
const PrimitiveTriangles = "RENDER_PRIM_TRIANGLES"

// BufferBinding selects a buffer by index and a byte offset within it.
type BufferBinding struct {
	Index  uint32
	Offset uint32
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() math.Vec3 {
	return b.Min.Lerp(b.Max, 0.5)
}

// DrawCallDesc is one draw call as authored, before buffers and materials
// are resolved.
type DrawCallDesc struct {
	Primitive     string
	BaseVertex    uint32
	VertexCount   uint32
	StartIndex    uint32
	IndexCount    uint32
	Material      string
	IndexBuffer   BufferBinding
	VertexBuffers []BufferBinding
}

// SceneDesc is the typed content of the first scene object.
type SceneDesc struct {
	DrawCalls []DrawCallDesc
	Bounds    Bounds
}

// DrawCommand is a fully resolved draw. Its vertex array is created once at
// compile time and reused every frame.
type DrawCommand struct {
	BaseVertex   uint32
	VertexCount  uint32
	StartIndex   uint32
	IndexCount   uint32
	VertexBuffer BufferBinding
	IndexBuffer  BufferBinding
	IndexWidth   int // 2 or 4 bytes
	MaterialName string
	Material     *material.Material
	VertexArray  gpu.VertexArray
}

// IndexByteOffset returns the byte offset of the first index in the bound index buffer.
func (c *DrawCommand) IndexByteOffset() uintptr {
	return uintptr(c.IndexBuffer.Offset) + uintptr(c.StartIndex)*uintptr(c.IndexWidth)
}

// Scene is the compiled, immutable draw list of a model.
type Scene struct {
	Commands []DrawCommand
	Bounds   Bounds
}

// Release deletes the vertex arrays created for the scene's commands.
func (s *Scene) Release(dev gpu.Device) {
	for i := range s.Commands {
		if s.Commands[i].VertexArray != 0 {
			dev.DeleteVertexArray(s.Commands[i].VertexArray)
			s.Commands[i].VertexArray = 0
		}
	}
}
