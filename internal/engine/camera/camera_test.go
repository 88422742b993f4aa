package camera

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/vmdlview/internal/engine/input"
	"github.com/Faultbox/vmdlview/pkg/math"
)

func near(a, b float32) bool {
	return math32.Abs(a-b) < 1e-3
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera(60)
	c.FitToBounds(math.Vec3{X: -10, Y: -10, Z: 0}, math.Vec3{X: 10, Y: 10, Z: 40})

	if c.Center != (math.Vec3{Z: 20}) {
		t.Errorf("center = %+v", c.Center)
	}
	radius := math.Vec3{X: 20, Y: 20, Z: 40}.Length() / 2
	if c.Distance < radius {
		t.Errorf("distance %v is inside the bounds (radius %v)", c.Distance, radius)
	}
	if c.Near <= 0 || c.Far <= c.Distance+radius {
		t.Errorf("clip planes %v..%v do not contain the model", c.Near, c.Far)
	}
}

func TestFitToEmptyBounds(t *testing.T) {
	c := NewOrbitCamera(60)
	c.FitToBounds(math.Vec3{}, math.Vec3{})
	if c.Distance <= 0 || math32.IsNaN(c.Distance) {
		t.Errorf("distance = %v", c.Distance)
	}
}

func TestViewMatrixLooksAtCenter(t *testing.T) {
	c := NewOrbitCamera(60)
	c.FitToBounds(math.Vec3{X: 0, Y: 0, Z: 0}, math.Vec3{X: 2, Y: 2, Z: 2})

	// The center ends up straight ahead of the eye, on the negative Z axis.
	p := c.ViewMatrix().TransformPoint(c.Center)
	if !near(p.X, 0) || !near(p.Y, 0) || !near(p.Z, -c.Distance) {
		t.Errorf("center in view space = %+v", p)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera(60)
	c.HandleDrag(0, 10000)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -20000)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
}

func TestHandleZoomClamps(t *testing.T) {
	c := NewOrbitCamera(60)
	c.MinDistance, c.MaxDistance = 10, 1000
	for i := 0; i < 100; i++ {
		c.HandleZoom(5)
	}
	if c.Distance != 10 {
		t.Errorf("distance = %v, want 10", c.Distance)
	}
	for i := 0; i < 100; i++ {
		c.HandleZoom(-5)
	}
	if c.Distance != 1000 {
		t.Errorf("distance = %v, want 1000", c.Distance)
	}
}

func TestTickConsumesInput(t *testing.T) {
	c := NewOrbitCamera(60)
	s := input.NewState()
	c.SetInput(s)
	yaw := c.Yaw

	s.Apply(input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft})
	s.Apply(input.Event{Type: input.EventMouseMove, DeltaX: 100})
	c.Tick()

	if c.Yaw == yaw {
		t.Error("drag did not rotate the camera")
	}
	if s.DeltaX != 0 {
		t.Error("tick did not clear input deltas")
	}

	// Pointer outside the viewport is ignored.
	yaw = c.Yaw
	s.Apply(input.Event{Type: input.EventMouseLeave})
	s.Apply(input.Event{Type: input.EventMouseMove, DeltaX: 100})
	c.Tick()
	if c.Yaw != yaw {
		t.Error("camera moved while the pointer was outside")
	}
}

func TestResetRestoresFittedView(t *testing.T) {
	c := NewOrbitCamera(60)
	s := input.NewState()
	c.SetInput(s)
	c.FitToBounds(math.Vec3{}, math.Vec3{X: 4, Y: 4, Z: 4})
	want := c.Position()

	c.SetViewportSize(800, 600)
	c.HandleDrag(50, 20)
	c.HandleMovement(1, 1, 0)

	s.Apply(input.Event{Type: input.EventKeyDown, Key: input.KeyR})
	c.Tick()

	if got := c.Position(); !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Z, want.Z) {
		t.Errorf("position = %+v, want %+v", got, want)
	}
	if c.Width != 800 || c.Height != 600 {
		t.Errorf("viewport lost on reset: %dx%d", c.Width, c.Height)
	}
}

func TestProjectionAspect(t *testing.T) {
	c := NewOrbitCamera(90)
	c.SetViewportSize(200, 100)
	p := c.ProjectionMatrix()
	if !near(p[5]/p[0], 2) {
		t.Errorf("aspect = %v, want 2", p[5]/p[0])
	}

	c.SetViewportSize(0, 0)
	if c.Width != 1 || c.Height != 1 {
		t.Errorf("zero viewport not clamped: %dx%d", c.Width, c.Height)
	}
}
