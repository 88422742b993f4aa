package shader

import "github.com/Faultbox/vmdlview/internal/engine/gpu"

// Input and uniform names of the viewer program.
const (
	InputPosition = gpu.InputPosition
	InputNormal   = gpu.InputNormal
	InputTexCoord = gpu.InputTexCoord

	UniformProjection = "projection"
	UniformModelView  = "modelview"
	UniformTexture    = "currentTexture"
	UniformAlphaTest  = "uAlphaTest"
	UniformAlphaRef   = "uAlphaRef"
)

// VertexSource transforms positions and passes texture coordinates through.
// vNormal is declared so layouts can bind it; it is not lit.
const VertexSource = `#version 410 core

in vec3 vPosition;
in vec3 vNormal;
in vec2 vTexCoord;

uniform mat4 projection;
uniform mat4 modelview;

out vec2 fTexCoord;
out vec3 fNormal;

void main() {
    fTexCoord = vTexCoord;
    fNormal = vNormal;
    gl_Position = projection * modelview * vec4(vPosition, 1.0);
}
`

// FragmentSource samples the material texture. Alpha testing is done here
// because the core profile has no fixed-function alpha test.
const FragmentSource = `#version 410 core

in vec2 fTexCoord;
in vec3 fNormal;

uniform sampler2D currentTexture;
uniform bool uAlphaTest;
uniform float uAlphaRef;

out vec4 outColor;

void main() {
    vec4 color = texture(currentTexture, fTexCoord);
    if (uAlphaTest && color.a < uAlphaRef) {
        discard;
    }
    outColor = color;
}
`
