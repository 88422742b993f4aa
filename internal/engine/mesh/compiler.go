package mesh

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/internal/engine/material"
	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/kv3"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

// MaterialResolver returns the material for a name. It never fails; missing
// materials resolve to a stand-in. *material.Cache implements it.
type MaterialResolver interface {
	Resolve(name string) *material.Material
}

// Arena holds the GPU buffers of one resource, indexed like the resource's
// vertex and index buffers.
type Arena struct {
	Vertex []gpu.Buffer
	Index  []gpu.Buffer
}

// Upload creates a GPU buffer for every vertex and index buffer. On failure
// the buffers created so far are deleted.
func Upload(dev gpu.Device, vbib *resource.VBIB) (*Arena, error) {
	a := &Arena{}
	for i := range vbib.VertexBuffers {
		b, err := dev.CreateBuffer(gpu.ArrayBuffer, vbib.VertexBuffers[i].Data)
		if err != nil {
			a.Release(dev)
			return nil, fmt.Errorf("uploading vertex buffer %d: %w", i, err)
		}
		a.Vertex = append(a.Vertex, b)
	}
	for i := range vbib.IndexBuffers {
		b, err := dev.CreateBuffer(gpu.ElementArrayBuffer, vbib.IndexBuffers[i].Data)
		if err != nil {
			a.Release(dev)
			return nil, fmt.Errorf("uploading index buffer %d: %w", i, err)
		}
		a.Index = append(a.Index, b)
	}
	return a, nil
}

// Release deletes every buffer in the arena.
func (a *Arena) Release(dev gpu.Device) {
	for _, b := range a.Vertex {
		dev.DeleteBuffer(b)
	}
	for _, b := range a.Index {
		dev.DeleteBuffer(b)
	}
	a.Vertex, a.Index = nil, nil
}

// Compile turns the draw calls of a model's DATA tree into draw commands.
// Any error aborts the whole scene and deletes the vertex arrays already
// created; a material that fails to load does not.
func Compile(data *kv3.Node, vbib *resource.VBIB, arena *Arena, materials MaterialResolver, dev gpu.Device) (*Scene, error) {
	c := &compiler{vbib: vbib, arena: arena, materials: materials, dev: dev}
	scene := &Scene{}
	bounds, err := walkScene(data, func(i int, dc *DrawCallDesc) error {
		cmd, err := c.compile(dc)
		if err != nil {
			return fmt.Errorf("draw call %d: %w", i, err)
		}
		scene.Commands = append(scene.Commands, cmd)
		return nil
	})
	if err != nil {
		scene.Release(dev)
		return nil, err
	}
	scene.Bounds = bounds

	logger.Named("mesh").Debug("scene compiled",
		zap.Int("drawCalls", len(scene.Commands)),
		zap.Int("vertexBuffers", len(vbib.VertexBuffers)),
		zap.Int("indexBuffers", len(vbib.IndexBuffers)),
	)
	return scene, nil
}

type compiler struct {
	vbib      *resource.VBIB
	arena     *Arena
	materials MaterialResolver
	dev       gpu.Device
}

func (c *compiler) compile(dc *DrawCallDesc) (DrawCommand, error) {
	if dc.Primitive != PrimitiveTriangles {
		return DrawCommand{}, fmt.Errorf("%w: primitive type %q", resource.ErrUnsupportedFormat, dc.Primitive)
	}

	cmd := DrawCommand{
		BaseVertex:   dc.BaseVertex,
		VertexCount:  dc.VertexCount,
		StartIndex:   dc.StartIndex,
		IndexCount:   dc.IndexCount,
		IndexBuffer:  dc.IndexBuffer,
		VertexBuffer: dc.VertexBuffers[0],
		MaterialName: dc.Material,
	}
	cmd.Material = c.materials.Resolve(dc.Material)

	ib, err := c.indexBuffer(cmd.IndexBuffer.Index)
	if err != nil {
		return DrawCommand{}, err
	}
	if cmd.IndexWidth, err = IndexWidth(ib.ElementSize); err != nil {
		return DrawCommand{}, err
	}
	end := uint64(cmd.IndexBuffer.Offset) + (uint64(cmd.StartIndex)+uint64(cmd.IndexCount))*uint64(cmd.IndexWidth)
	if end > uint64(len(ib.Data)) {
		return DrawCommand{}, fmt.Errorf("%w: index range ends at byte %d of %d", resource.ErrSchema, end, len(ib.Data))
	}

	vb, err := c.vertexBuffer(cmd.VertexBuffer.Index)
	if err != nil {
		return DrawCommand{}, err
	}
	attrs, err := ResolveAttributes(vb)
	if err != nil {
		return DrawCommand{}, err
	}
	if cmd.VertexArray, err = c.bindLayout(&cmd, attrs); err != nil {
		return DrawCommand{}, err
	}
	return cmd, nil
}

func (c *compiler) indexBuffer(i uint32) (*resource.Buffer, error) {
	if int(i) >= len(c.vbib.IndexBuffers) || int(i) >= len(c.arena.Index) {
		return nil, fmt.Errorf("%w: index buffer %d of %d", resource.ErrSchema, i, len(c.vbib.IndexBuffers))
	}
	return &c.vbib.IndexBuffers[i], nil
}

func (c *compiler) vertexBuffer(i uint32) (*resource.Buffer, error) {
	if int(i) >= len(c.vbib.VertexBuffers) || int(i) >= len(c.arena.Vertex) {
		return nil, fmt.Errorf("%w: vertex buffer %d of %d", resource.ErrSchema, i, len(c.vbib.VertexBuffers))
	}
	return &c.vbib.VertexBuffers[i], nil
}

// bindLayout records the vertex buffer, index buffer and attribute pointers
// of cmd in a new vertex array. Inputs the active program does not declare
// are skipped.
func (c *compiler) bindLayout(cmd *DrawCommand, attrs []AttributeBinding) (gpu.VertexArray, error) {
	vao, err := c.dev.CreateVertexArray()
	if err != nil {
		return 0, fmt.Errorf("creating vertex array: %w", err)
	}

	c.dev.BindVertexArray(vao)
	c.dev.BindBuffer(gpu.ArrayBuffer, c.arena.Vertex[cmd.VertexBuffer.Index])
	c.dev.BindBuffer(gpu.ElementArrayBuffer, c.arena.Index[cmd.IndexBuffer.Index])
	for _, a := range attrs {
		loc := c.dev.AttribLocation(a.Input)
		if loc < 0 {
			logger.Named("mesh").Debug("shader input not active", zap.String("input", a.Input))
			continue
		}
		c.dev.EnableVertexAttrib(uint32(loc))
		c.dev.VertexAttribPointer(uint32(loc), a.Size, a.Type, a.Normalized, int32(a.Stride),
			uintptr(a.Offset)+uintptr(cmd.VertexBuffer.Offset))
	}
	c.dev.BindVertexArray(0)
	c.dev.BindBuffer(gpu.ArrayBuffer, 0)
	c.dev.BindBuffer(gpu.ElementArrayBuffer, 0)
	return vao, nil
}

// IndexWidth maps an index buffer's element size to the index width in
// bytes. Only 16-bit and 32-bit indices are supported.
func IndexWidth(elementSize uint32) (int, error) {
	switch elementSize {
	case 2, 4:
		return int(elementSize), nil
	}
	return 0, fmt.Errorf("%w: index element size %d", resource.ErrUnsupportedFormat, elementSize)
}
