package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

func TestResolveAttributes(t *testing.T) {
	tests := []struct {
		semantic string
		format   resource.Format
		want     *AttributeBinding // nil means accepted but not bound
		wantErr  bool
	}{
		{"POSITION", resource.FormatR32G32B32Float, &AttributeBinding{Input: gpu.InputPosition, Size: 3, Type: gpu.Float}, false},
		{"POSITION", resource.FormatR32G32Float, nil, true},
		{"NORMAL", resource.FormatR32G32B32Float, &AttributeBinding{Input: gpu.InputNormal, Size: 3, Type: gpu.Float}, false},
		{"NORMAL", resource.FormatR8G8B8A8Unorm, &AttributeBinding{Input: gpu.InputNormal, Size: 4, Type: gpu.UnsignedByte, Normalized: true}, false},
		{"NORMAL", resource.FormatR16G16B16A16Float, nil, true},
		{"TEXCOORD", resource.FormatR32G32Float, &AttributeBinding{Input: gpu.InputTexCoord, Size: 2, Type: gpu.Float}, false},
		{"TEXCOORD", resource.FormatR16G16Float, &AttributeBinding{Input: gpu.InputTexCoord, Size: 2, Type: gpu.HalfFloat}, false},
		{"TEXCOORD", resource.FormatR32G32B32Float, nil, true},
		{"TANGENT", resource.FormatR32G32B32A32Float, nil, false},
		{"TANGENT", resource.FormatR32G32B32Float, nil, true},
		{"BLENDINDICES", resource.FormatR8G8B8A8Uint, nil, false},
		{"BLENDINDICES", resource.FormatR16G16Sint, nil, false},
		{"BLENDINDICES", resource.FormatR16G16B16A16Sint, nil, false},
		{"BLENDINDICES", resource.FormatR32Uint, nil, true},
		{"BLENDWEIGHT", resource.FormatR16G16Unorm, nil, false},
		{"BLENDWEIGHT", resource.FormatR8G8B8A8Uint, nil, false},
		{"BLENDWEIGHT", resource.FormatR8G8B8A8Unorm, nil, false},
		{"BLENDWEIGHT", resource.FormatR32Float, nil, true},
		{"COLOR", resource.FormatR8G8B8A8Unorm, nil, false},
		{"texcoord", resource.Format(999), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.semantic+"/"+tt.format.String(), func(t *testing.T) {
			buf := &resource.Buffer{
				ElementSize: 32,
				Attributes:  []resource.Attribute{{SemanticName: tt.semantic, Format: tt.format, Offset: 8}},
			}
			got, err := ResolveAttributes(buf)
			if tt.wantErr {
				assert.ErrorIs(t, err, resource.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			want := *tt.want
			want.Offset = 8
			want.Stride = 32
			assert.Equal(t, []AttributeBinding{want}, got)
		})
	}
}

func TestResolveAttributesFirstTexcoord(t *testing.T) {
	buf := &resource.Buffer{
		ElementSize: 36,
		Attributes: []resource.Attribute{
			{SemanticName: "POSITION", Format: resource.FormatR32G32B32Float, Offset: 0},
			{SemanticName: "TEXCOORD", SemanticIndex: 0, Format: resource.FormatR16G16Float, Offset: 12},
			{SemanticName: "TEXCOORD", SemanticIndex: 1, Format: resource.FormatR32G32Float, Offset: 16},
			{SemanticName: "TEXCOORD", SemanticIndex: 2, Format: resource.FormatR8G8B8A8Uint, Offset: 24},
		},
	}

	got, err := ResolveAttributes(buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, gpu.InputTexCoord, got[1].Input)
	assert.Equal(t, uint32(12), got[1].Offset)
	assert.Equal(t, gpu.HalfFloat, got[1].Type)
}

func TestResolveAttributesIdempotent(t *testing.T) {
	buf := vertexBuffer(
		resource.Attribute{SemanticName: "POSITION", Format: resource.FormatR32G32B32Float, Offset: 0},
		resource.Attribute{SemanticName: "NORMAL", Format: resource.FormatR8G8B8A8Unorm, Offset: 12},
		resource.Attribute{SemanticName: "TEXCOORD", Format: resource.FormatR32G32Float, Offset: 16},
		resource.Attribute{SemanticName: "TEXCOORD", Format: resource.FormatR32G32Float, Offset: 24},
		resource.Attribute{SemanticName: "BLENDWEIGHT", Format: resource.FormatR8G8B8A8Unorm, Offset: 32},
	)

	first, err := ResolveAttributes(&buf)
	require.NoError(t, err)
	second, err := ResolveAttributes(&buf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}
