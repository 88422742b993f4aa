package resource

import "fmt"

// Format is a DXGI format tag describing one encoded vertex attribute.
type Format uint32

// Formats that appear in vertex buffer attribute tables.
const (
	FormatUnknown           Format = 0
	FormatR32G32B32A32Float Format = 2
	FormatR32G32B32A32Uint  Format = 3
	FormatR32G32B32A32Sint  Format = 4
	FormatR32G32B32Float    Format = 6
	FormatR32G32B32Uint     Format = 7
	FormatR32G32B32Sint     Format = 8
	FormatR16G16B16A16Float Format = 10
	FormatR16G16B16A16Unorm Format = 11
	FormatR16G16B16A16Uint  Format = 12
	FormatR16G16B16A16Snorm Format = 13
	FormatR16G16B16A16Sint  Format = 14
	FormatR32G32Float       Format = 16
	FormatR32G32Uint        Format = 17
	FormatR32G32Sint        Format = 18
	FormatR8G8B8A8Unorm     Format = 28
	FormatR8G8B8A8Uint      Format = 30
	FormatR8G8B8A8Snorm     Format = 31
	FormatR8G8B8A8Sint      Format = 32
	FormatR16G16Float       Format = 34
	FormatR16G16Unorm       Format = 35
	FormatR16G16Uint        Format = 36
	FormatR16G16Snorm       Format = 37
	FormatR16G16Sint        Format = 38
	FormatR32Float          Format = 41
	FormatR32Uint           Format = 42
	FormatR32Sint           Format = 43
)

// ComponentKind is the numeric interpretation of a format's components.
type ComponentKind uint8

const (
	ComponentFloat ComponentKind = iota
	ComponentHalf
	ComponentUnorm
	ComponentSnorm
	ComponentUint
	ComponentSint
)

// FormatInfo describes the layout of a format.
type FormatInfo struct {
	Name           string
	Components     int
	ComponentBytes int
	Kind           ComponentKind
}

// Size returns the encoded size of one element in bytes.
func (fi FormatInfo) Size() int {
	return fi.Components * fi.ComponentBytes
}

var formatInfo = map[Format]FormatInfo{
	FormatR32G32B32A32Float: {"R32G32B32A32_FLOAT", 4, 4, ComponentFloat},
	FormatR32G32B32A32Uint:  {"R32G32B32A32_UINT", 4, 4, ComponentUint},
	FormatR32G32B32A32Sint:  {"R32G32B32A32_SINT", 4, 4, ComponentSint},
	FormatR32G32B32Float:    {"R32G32B32_FLOAT", 3, 4, ComponentFloat},
	FormatR32G32B32Uint:     {"R32G32B32_UINT", 3, 4, ComponentUint},
	FormatR32G32B32Sint:     {"R32G32B32_SINT", 3, 4, ComponentSint},
	FormatR16G16B16A16Float: {"R16G16B16A16_FLOAT", 4, 2, ComponentHalf},
	FormatR16G16B16A16Unorm: {"R16G16B16A16_UNORM", 4, 2, ComponentUnorm},
	FormatR16G16B16A16Uint:  {"R16G16B16A16_UINT", 4, 2, ComponentUint},
	FormatR16G16B16A16Snorm: {"R16G16B16A16_SNORM", 4, 2, ComponentSnorm},
	FormatR16G16B16A16Sint:  {"R16G16B16A16_SINT", 4, 2, ComponentSint},
	FormatR32G32Float:       {"R32G32_FLOAT", 2, 4, ComponentFloat},
	FormatR32G32Uint:        {"R32G32_UINT", 2, 4, ComponentUint},
	FormatR32G32Sint:        {"R32G32_SINT", 2, 4, ComponentSint},
	FormatR8G8B8A8Unorm:     {"R8G8B8A8_UNORM", 4, 1, ComponentUnorm},
	FormatR8G8B8A8Uint:      {"R8G8B8A8_UINT", 4, 1, ComponentUint},
	FormatR8G8B8A8Snorm:     {"R8G8B8A8_SNORM", 4, 1, ComponentSnorm},
	FormatR8G8B8A8Sint:      {"R8G8B8A8_SINT", 4, 1, ComponentSint},
	FormatR16G16Float:       {"R16G16_FLOAT", 2, 2, ComponentHalf},
	FormatR16G16Unorm:       {"R16G16_UNORM", 2, 2, ComponentUnorm},
	FormatR16G16Uint:        {"R16G16_UINT", 2, 2, ComponentUint},
	FormatR16G16Snorm:       {"R16G16_SNORM", 2, 2, ComponentSnorm},
	FormatR16G16Sint:        {"R16G16_SINT", 2, 2, ComponentSint},
	FormatR32Float:          {"R32_FLOAT", 1, 4, ComponentFloat},
	FormatR32Uint:           {"R32_UINT", 1, 4, ComponentUint},
	FormatR32Sint:           {"R32_SINT", 1, 4, ComponentSint},
}

// Info returns the layout of f and whether it is known.
func (f Format) Info() (FormatInfo, bool) {
	fi, ok := formatInfo[f]
	return fi, ok
}

// String returns the DXGI name of the format.
func (f Format) String() string {
	if fi, ok := formatInfo[f]; ok {
		return fi.Name
	}
	return fmt.Sprintf("DXGI_FORMAT(%d)", uint32(f))
}
