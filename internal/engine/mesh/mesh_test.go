package mesh

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/vmdlview/internal/engine/material"
	"github.com/Faultbox/vmdlview/pkg/kv3"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

const crateMaterial = "materials/crate.vmat"

type loaderFunc func(name string) (*material.Material, error)

func (f loaderFunc) Load(name string) (*material.Material, error) { return f(name) }

// newMaterials returns a cache that knows only crateMaterial.
func newMaterials() *material.Cache {
	return material.NewCache(loaderFunc(func(name string) (*material.Material, error) {
		if name != crateMaterial {
			return nil, fmt.Errorf("%w: %s", material.ErrLoad, name)
		}
		return &material.Material{Name: name, Texture: 42}, nil
	}), 1)
}

// vertexBuffer is a position + texcoord layout with three vertices.
func vertexBuffer(attrs ...resource.Attribute) resource.Buffer {
	if attrs == nil {
		attrs = []resource.Attribute{
			{SemanticName: "POSITION", Format: resource.FormatR32G32B32Float, Offset: 0},
			{SemanticName: "TEXCOORD", Format: resource.FormatR32G32Float, Offset: 12},
		}
	}
	return resource.Buffer{
		Kind:         resource.VertexBuffer,
		ElementCount: 3,
		ElementSize:  20,
		Attributes:   attrs,
		Data:         make([]byte, 3*20),
	}
}

// indexBuffer holds count indices of the given element size.
func indexBuffer(elementSize uint32, count int) resource.Buffer {
	data := make([]byte, int(elementSize)*count)
	for i := 0; i < count && elementSize == 2; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(i%3))
	}
	return resource.Buffer{
		Kind:         resource.IndexBuffer,
		ElementCount: uint32(count),
		ElementSize:  elementSize,
		Data:         data,
	}
}

func triangleVBIB(indexSize uint32) *resource.VBIB {
	return &resource.VBIB{
		VertexBuffers: []resource.Buffer{vertexBuffer()},
		IndexBuffers:  []resource.Buffer{indexBuffer(indexSize, 3)},
	}
}

func binding(index, offset int64) *kv3.Node {
	return kv3.Object().
		Set("m_hBuffer", kv3.Int(index)).
		Set("m_nBindOffsetBytes", kv3.Int(offset))
}

func vec(x, y, z float64) *kv3.Node {
	return kv3.Array(kv3.Double(x), kv3.Double(y), kv3.Double(z))
}

// drawCall builds a triangle-list draw call of three indices. Overrides
// replace fields; omitted keys are left out.
func drawCall(overrides map[string]*kv3.Node, omit ...string) *kv3.Node {
	fields := []struct {
		key   string
		value *kv3.Node
	}{
		{"m_nPrimitiveType", kv3.String(PrimitiveTriangles)},
		{"m_nBaseVertex", kv3.Int(0)},
		{"m_nVertexCount", kv3.Int(3)},
		{"m_nStartIndex", kv3.Int(0)},
		{"m_nIndexCount", kv3.Int(3)},
		{"m_material", kv3.String(crateMaterial)},
		{"m_indexBuffer", binding(0, 0)},
		{"m_vertexBuffers", kv3.Array(binding(0, 0))},
	}

	n := kv3.Object()
next:
	for _, f := range fields {
		for _, o := range omit {
			if o == f.key {
				continue next
			}
		}
		if v, ok := overrides[f.key]; ok {
			n.Set(f.key, v)
			continue
		}
		n.Set(f.key, f.value)
	}
	return n
}

func sceneData(calls ...*kv3.Node) *kv3.Node {
	return kv3.Object().Set("m_sceneObjects", kv3.Array(
		kv3.Object().
			Set("m_drawCalls", kv3.Array(calls...)).
			Set("m_vMinBounds", vec(-1, -2, -3)).
			Set("m_vMaxBounds", vec(1, 2, 3)),
	))
}
