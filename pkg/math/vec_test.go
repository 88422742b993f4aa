package math

import "testing"

func TestVec3Cross(t *testing.T) {
	got := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	if got := (Vec3{3, 4, 0}).Length(); got != 5 {
		t.Errorf("Vec3.Length() = %v, want 5", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero Normalize() = %v", got)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got := a.Min(b); got != (Vec3{1, -1, -2}) {
		t.Errorf("Min() = %v", got)
	}
	if got := a.Max(b); got != (Vec3{3, 5, 0}) {
		t.Errorf("Max() = %v", got)
	}
	if got := a.Lerp(b, 0.5); got != (Vec3{2, 2, -1}) {
		t.Errorf("Lerp() = %v", got)
	}
}
