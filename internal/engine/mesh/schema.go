package mesh

import (
	"fmt"

	"github.com/Faultbox/vmdlview/pkg/kv3"
	"github.com/Faultbox/vmdlview/pkg/math"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

// ReadScene extracts the draw calls and bounds of the first scene object.
// Every missing or mistyped field is reported as resource.ErrSchema.
func ReadScene(data *kv3.Node) (*SceneDesc, error) {
	scene := &SceneDesc{}
	bounds, err := walkScene(data, func(_ int, dc *DrawCallDesc) error {
		scene.DrawCalls = append(scene.DrawCalls, *dc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	scene.Bounds = bounds
	return scene, nil
}

// walkScene reads the draw calls of the first scene object in order and
// hands each to visit before reading the next. Errors from visit are
// returned unwrapped.
func walkScene(data *kv3.Node, visit func(i int, dc *DrawCallDesc) error) (Bounds, error) {
	var bounds Bounds
	obj, err := data.Path("m_sceneObjects", "0")
	if err != nil {
		return bounds, fmt.Errorf("%w: %w", resource.ErrSchema, err)
	}

	calls, err := obj.Get("m_drawCalls")
	if err != nil {
		return bounds, fmt.Errorf("%w: m_sceneObjects[0]: %w", resource.ErrSchema, err)
	}
	if calls.Kind() != kv3.KindArray {
		return bounds, fmt.Errorf("%w: m_drawCalls is %s, want array", resource.ErrSchema, calls.Kind())
	}

	for i, node := range calls.Items() {
		dc, err := readDrawCall(node)
		if err != nil {
			return bounds, fmt.Errorf("%w: m_drawCalls[%d].%w", resource.ErrSchema, i, err)
		}
		if err := visit(i, &dc); err != nil {
			return bounds, err
		}
	}

	if bounds.Min, err = readVec3(obj, "m_vMinBounds"); err != nil {
		return bounds, fmt.Errorf("%w: %w", resource.ErrSchema, err)
	}
	if bounds.Max, err = readVec3(obj, "m_vMaxBounds"); err != nil {
		return bounds, fmt.Errorf("%w: %w", resource.ErrSchema, err)
	}
	return bounds, nil
}

// fieldError names the field that failed to read.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

func readDrawCall(n *kv3.Node) (DrawCallDesc, error) {
	var dc DrawCallDesc
	var err error

	if dc.Primitive, err = readString(n, "m_nPrimitiveType"); err != nil {
		return dc, err
	}
	counts := []struct {
		key string
		dst *uint32
	}{
		{"m_nBaseVertex", &dc.BaseVertex},
		{"m_nVertexCount", &dc.VertexCount},
		{"m_nStartIndex", &dc.StartIndex},
		{"m_nIndexCount", &dc.IndexCount},
	}
	for _, c := range counts {
		if *c.dst, err = readUint32(n, c.key); err != nil {
			return dc, err
		}
	}
	if dc.Material, err = readString(n, "m_material"); err != nil {
		return dc, err
	}

	ib, err := n.Get("m_indexBuffer")
	if err != nil {
		return dc, &fieldError{"m_indexBuffer", err}
	}
	if dc.IndexBuffer, err = readBinding(ib); err != nil {
		return dc, &fieldError{"m_indexBuffer", err}
	}

	vbs, err := n.Get("m_vertexBuffers")
	if err != nil {
		return dc, &fieldError{"m_vertexBuffers", err}
	}
	if vbs.Len() == 0 {
		return dc, &fieldError{"m_vertexBuffers", fmt.Errorf("no vertex buffer bindings")}
	}
	first, err := readBinding(vbs.Items()[0])
	if err != nil {
		return dc, &fieldError{"m_vertexBuffers[0]", err}
	}
	dc.VertexBuffers = append(dc.VertexBuffers, first)

	// Only stream 0 is drawn. Later streams are listed when readable and
	// otherwise dropped.
	for _, vb := range vbs.Items()[1:] {
		if b, err := readBinding(vb); err == nil {
			dc.VertexBuffers = append(dc.VertexBuffers, b)
		}
	}
	return dc, nil
}

func readBinding(n *kv3.Node) (BufferBinding, error) {
	var b BufferBinding
	var err error
	if b.Index, err = readUint32(n, "m_hBuffer"); err != nil {
		return b, err
	}
	if b.Offset, err = readUint32(n, "m_nBindOffsetBytes"); err != nil {
		return b, err
	}
	return b, nil
}

func readString(n *kv3.Node, key string) (string, error) {
	v, err := n.Get(key)
	if err != nil {
		return "", &fieldError{key, err}
	}
	s, err := v.AsString()
	if err != nil {
		return "", &fieldError{key, err}
	}
	return s, nil
}

func readUint32(n *kv3.Node, key string) (uint32, error) {
	v, err := n.Get(key)
	if err != nil {
		return 0, &fieldError{key, err}
	}
	u, err := v.AsUint32()
	if err != nil {
		return 0, &fieldError{key, err}
	}
	return u, nil
}

func readVec3(n *kv3.Node, key string) (math.Vec3, error) {
	v, err := n.Get(key)
	if err != nil {
		return math.Vec3{}, &fieldError{key, err}
	}
	if v.Len() < 3 {
		return math.Vec3{}, &fieldError{key, fmt.Errorf("%w: want 3 components, got %d", kv3.ErrWrongKind, v.Len())}
	}
	var c [3]float32
	for i := range c {
		f, err := v.Items()[i].AsFloat64()
		if err != nil {
			return math.Vec3{}, &fieldError{fmt.Sprintf("%s[%d]", key, i), err}
		}
		c[i] = float32(f)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}
