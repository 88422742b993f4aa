package mesh

import (
	"fmt"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

// AttributeBinding connects one vertex attribute to a shader input.
type AttributeBinding struct {
	Input      string
	Size       int32
	Type       gpu.AttribType
	Normalized bool
	Offset     uint32
	Stride     uint32
}

// encoding is how an accepted format is fed to its shader input. An empty
// input marks an attribute that is recognized but not bound.
type encoding struct {
	input      string
	size       int32
	typ        gpu.AttribType
	normalized bool
}

var inert = encoding{}

// attributeRules lists, per known semantic, every accepted format. A known
// semantic with any other format is rejected; unknown semantics are skipped.
var attributeRules = map[string]map[resource.Format]encoding{
	"POSITION": {
		resource.FormatR32G32B32Float: {gpu.InputPosition, 3, gpu.Float, false},
	},
	"NORMAL": {
		resource.FormatR32G32B32Float: {gpu.InputNormal, 3, gpu.Float, false},
		resource.FormatR8G8B8A8Unorm:  {gpu.InputNormal, 4, gpu.UnsignedByte, true},
	},
	"TEXCOORD": {
		resource.FormatR32G32Float: {gpu.InputTexCoord, 2, gpu.Float, false},
		resource.FormatR16G16Float: {gpu.InputTexCoord, 2, gpu.HalfFloat, false},
	},
	"TANGENT": {
		resource.FormatR32G32B32A32Float: inert,
	},
	"BLENDINDICES": {
		resource.FormatR8G8B8A8Uint:     inert,
		resource.FormatR16G16Sint:       inert,
		resource.FormatR16G16B16A16Sint: inert,
	},
	"BLENDWEIGHT": {
		resource.FormatR16G16Unorm:   inert,
		resource.FormatR8G8B8A8Uint:  inert,
		resource.FormatR8G8B8A8Unorm: inert,
	},
}

// ResolveAttributes maps the attributes of a vertex buffer to shader input
// bindings. Only the first TEXCOORD is bound; later ones are skipped without
// checking their format.
func ResolveAttributes(buf *resource.Buffer) ([]AttributeBinding, error) {
	var bindings []AttributeBinding
	texcoordBound := false

	for _, attr := range buf.Attributes {
		rules, known := attributeRules[attr.SemanticName]
		if !known {
			continue
		}
		if attr.SemanticName == "TEXCOORD" && texcoordBound {
			continue
		}

		enc, ok := rules[attr.Format]
		if !ok {
			return nil, fmt.Errorf("%w: %s attribute with format %s", resource.ErrUnsupportedFormat, attr.SemanticName, attr.Format)
		}
		if enc.input == "" {
			continue
		}
		if enc.input == gpu.InputTexCoord {
			texcoordBound = true
		}

		bindings = append(bindings, AttributeBinding{
			Input:      enc.input,
			Size:       enc.size,
			Type:       enc.typ,
			Normalized: enc.normalized,
			Offset:     attr.Offset,
			Stride:     buf.ElementSize,
		})
	}
	return bindings, nil
}
