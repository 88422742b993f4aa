package math

import (
	"testing"

	"github.com/chewxy/math32"
)

func abs(f float32) float32 {
	return math32.Abs(f)
}

func near(a, b Vec3) bool {
	return abs(a.X-b.X) < 0.001 && abs(a.Y-b.Y) < 0.001 && abs(a.Z-b.Z) < 0.001
}

func TestLayoutIsColumnMajor(t *testing.T) {
	m := Translate(1, 2, 3)
	if m[12] != 1 || m[13] != 2 || m[14] != 3 {
		t.Errorf("translation not in the last column: %v", m)
	}
	if m.At(0, 3) != 1 || m.At(3, 3) != 1 || m.At(3, 0) != 0 {
		t.Errorf("At reads the wrong element: %v", m)
	}
	id := Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if id.At(i, j) != want {
				t.Errorf("Identity(%d, %d) = %v", i, j, id.At(i, j))
			}
		}
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(1, 0, 0).Mul(Scale(2, 2, 2))
	if got := m.TransformPoint(Vec3{1, 1, 1}); got != (Vec3{3, 2, 2}) {
		t.Errorf("got %v, want (3, 2, 2)", got)
	}
	m = Scale(2, 2, 2).Mul(Translate(1, 0, 0))
	if got := m.TransformPoint(Vec3{1, 1, 1}); got != (Vec3{4, 2, 2}) {
		t.Errorf("got %v, want (4, 2, 2)", got)
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"scale then translate", Translate(1, 0, 0).Mul(Scale(2, 2, 2)), Vec3{1, 1, 1}, Vec3{3, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.in); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, -10, 0}
	view := LookAt(eye, Vec3{}, Vec3{0, 0, 1})

	// The target lands on the negative view Z axis.
	got := view.TransformPoint(Vec3{})
	if !near(got, Vec3{0, 0, -10}) {
		t.Errorf("center in view space = %v, want (0, 0, -10)", got)
	}
	// World up maps to view up.
	got = view.TransformPoint(Vec3{0, 0, 1})
	if !near(got, Vec3{0, 1, -10}) {
		t.Errorf("up in view space = %v, want (0, 1, -10)", got)
	}
}

func TestPerspective(t *testing.T) {
	p := Perspective(math32.Pi/2, 1, 1, 100)

	nearPoint := p.TransformPoint(Vec3{0, 0, -1})
	if abs(nearPoint.Z+1) > 0.001 {
		t.Errorf("near plane depth = %f, want -1", nearPoint.Z)
	}
	farPoint := p.TransformPoint(Vec3{0, 0, -100})
	if abs(farPoint.Z-1) > 0.001 {
		t.Errorf("far plane depth = %f, want 1", farPoint.Z)
	}
}
