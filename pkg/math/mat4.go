package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix stored column-major, the layout glUniformMatrix4fv
// expects without transposition. Element (row, col) is m[col*4+row].
type Mat4 [16]float32

// At returns the element at row, col.
func (m Mat4) At(row, col int) float32 {
	return m[col*4+row]
}

func (m *Mat4) set(row, col int, v float32) {
	m[col*4+row] = v
}

// Identity returns the identity matrix.
func Identity() Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		m.set(i, i, 1)
	}
	return m
}

// Perspective returns an OpenGL projection mapping view depths -near..-far
// to clip depths -1..1. fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	var m Mat4
	m.set(0, 0, f/aspect)
	m.set(1, 1, f)
	m.set(2, 2, (far+near)/(near-far))
	m.set(2, 3, 2*far*near/(near-far))
	m.set(3, 2, -1)
	return m
}

// LookAt returns a right-handed view matrix for an eye looking at target.
// The target ends up on the negative view Z axis.
func LookAt(eye, target, up Vec3) Mat4 {
	forward := target.Sub(eye).Normalize()
	side := forward.Cross(up).Normalize()
	axes := [3]Vec3{side, side.Cross(forward), forward.Scale(-1)}

	m := Identity()
	for row, axis := range axes {
		m.set(row, 0, axis.X)
		m.set(row, 1, axis.Y)
		m.set(row, 2, axis.Z)
		m.set(row, 3, -axis.Dot(eye))
	}
	return m
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m.set(0, 3, x)
	m.set(1, 3, y)
	m.set(2, 3, z)
	return m
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m.set(0, 0, x)
	m.set(1, 1, y)
	m.set(2, 2, z)
	return m
}

// Mul returns m * o, so o is applied first.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.At(row, k) * o.At(k, col)
			}
			r.set(row, col, sum)
		}
	}
	return r
}

// TransformPoint applies m to the point p (w = 1) and divides by the
// resulting w when it is not 0 or 1.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	in := [4]float32{p.X, p.Y, p.Z, 1}
	var out [4]float32
	for row := range out {
		for k, v := range in {
			out[row] += m.At(row, k) * v
		}
	}
	if w := out[3]; w != 0 && w != 1 {
		return Vec3{out[0] / w, out[1] / w, out[2] / w}
	}
	return Vec3{out[0], out[1], out[2]}
}

// Ptr returns a pointer to the first element for uniform uploads.
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}
