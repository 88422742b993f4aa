// Package math provides the float32 vector and matrix types the viewer
// uploads to OpenGL.
package math

import "github.com/chewxy/math32"

// Vec3 is a point or direction in model space.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the right-handed cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float32 { return math32.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l > 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}

// Min and Max are component-wise, for growing bounding boxes.
func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{math32.Min(v.X, o.X), math32.Min(v.Y, o.Y), math32.Min(v.Z, o.Z)}
}

func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{math32.Max(v.X, o.X), math32.Max(v.Y, o.Y), math32.Max(v.Z, o.Z)}
}

// Lerp returns v + (o - v) * t.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}
