package shader

import (
	"strings"
	"testing"
)

func TestSourcesDeclareNames(t *testing.T) {
	tests := []struct {
		source string
		decl   string
	}{
		{VertexSource, "in vec3 " + InputPosition},
		{VertexSource, "in vec3 " + InputNormal},
		{VertexSource, "in vec2 " + InputTexCoord},
		{VertexSource, "uniform mat4 " + UniformProjection},
		{VertexSource, "uniform mat4 " + UniformModelView},
		{FragmentSource, "uniform sampler2D " + UniformTexture},
		{FragmentSource, "uniform bool " + UniformAlphaTest},
		{FragmentSource, "uniform float " + UniformAlphaRef},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.source, tt.decl+";") {
			t.Errorf("missing declaration %q", tt.decl)
		}
	}
}
