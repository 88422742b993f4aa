// Package camera provides the orbit camera used by the model viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/vmdlview/internal/engine/input"
	"github.com/Faultbox/vmdlview/pkg/math"
)

// OrbitCamera orbits around a center point. Z is up.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Elevation above the XY plane, radians
	Yaw      float32 // Rotation around Z, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	MoveSpeed       float32 // fraction of Distance per tick

	// Projection
	FOV       float32 // vertical, radians
	Near, Far float32
	Width     int
	Height    int

	input  *input.State
	fitted *OrbitCamera
}

// NewOrbitCamera creates an orbit camera with a vertical field of view in degrees.
func NewOrbitCamera(fovDegrees float32) *OrbitCamera {
	return &OrbitCamera{
		Distance:        200.0,
		Pitch:           0.5,
		Yaw:             math32.Pi / 4,
		MinDistance:     1.0,
		MaxDistance:     100000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		MoveSpeed:       0.02,
		FOV:             fovDegrees * math32.Pi / 180,
		Near:            1,
		Far:             10000,
		Width:           1,
		Height:          1,
	}
}

// SetInput attaches the input state read by Tick.
func (c *OrbitCamera) SetInput(s *input.State) {
	c.input = s
}

// Tick applies the attached input state and clears its per-tick deltas.
func (c *OrbitCamera) Tick() {
	if c.input == nil {
		return
	}
	c.HandleInput(c.input)
	c.input.EndTick()
}

// HandleInput orbits on left drag, pans on right drag, zooms on the wheel
// and moves with WASD/QE. R restores the fitted view. Pointer input is only
// used while the pointer is inside the viewport.
func (c *OrbitCamera) HandleInput(s *input.State) {
	if s.Inside {
		if s.Button(input.ButtonLeft) {
			c.HandleDrag(s.DeltaX, s.DeltaY)
		} else if s.Button(input.ButtonRight) {
			c.HandlePan(s.DeltaX, s.DeltaY)
		}
		if s.Wheel != 0 {
			c.HandleZoom(s.Wheel)
		}
	}
	if !s.Focused {
		return
	}
	if s.Pressed(input.KeyR) && c.fitted != nil {
		c.Reset()
		return
	}
	c.HandleMovement(s.Axis(input.KeyW, input.KeyS), s.Axis(input.KeyD, input.KeyA), s.Axis(input.KeyE, input.KeyQ))
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * math32.Cos(c.Yaw),
		Y: c.Distance * cp * math32.Sin(c.Yaw),
		Z: c.Distance * math32.Sin(c.Pitch),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Z: 1})
}

// ProjectionMatrix returns the perspective projection for the viewport.
func (c *OrbitCamera) ProjectionMatrix() math.Mat4 {
	aspect := float32(c.Width) / float32(max(c.Height, 1))
	return math.Perspective(c.FOV, aspect, c.Near, c.Far)
}

// SetViewportSize updates the aspect ratio.
func (c *OrbitCamera) SetViewportSize(width, height int) {
	c.Width = max(width, 1)
	c.Height = max(height, 1)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity

	// Clamp pitch
	c.Pitch = math32.Max(c.MinPitch, math32.Min(c.MaxPitch, c.Pitch))
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = math32.Max(c.MinDistance, math32.Min(c.MaxDistance, c.Distance))
}

// HandlePan moves the center in the view plane based on mouse drag delta.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	forward := c.Center.Sub(c.Position()).Normalize()
	right := forward.Cross(math.Vec3{Z: 1}).Normalize()
	up := right.Cross(forward)

	scale := c.Distance * c.DragSensitivity * 0.2
	c.Center = c.Center.Add(right.Scale(-deltaX * scale)).Add(up.Scale(deltaY * scale))
}

// HandleMovement moves the center point along the ground plane and Z.
func (c *OrbitCamera) HandleMovement(forward, right, up float32) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * c.MoveSpeed

	dirX, dirY := -math32.Cos(c.Yaw), -math32.Sin(c.Yaw)
	rightX, rightY := dirY, -dirX

	c.Center.X += (dirX*forward + rightX*right) * speed
	c.Center.Y += (dirY*forward + rightY*right) * speed
	c.Center.Z += up * speed
}

// FitToBounds centers the camera on a bounding box and backs off until the
// whole box is in view. Clip planes are scaled to the box.
func (c *OrbitCamera) FitToBounds(lo, hi math.Vec3) {
	c.Center = lo.Lerp(hi, 0.5)

	radius := hi.Sub(lo).Length() / 2
	if radius <= 0 {
		radius = 1
	}
	c.Distance = radius / math32.Sin(c.FOV/2) * 1.1
	c.MinDistance = radius * 0.05
	c.MaxDistance = c.Distance * 20
	c.Near = math32.Max(radius*0.01, 0.01)
	c.Far = c.Distance*2 + radius*40

	c.Pitch = 0.5
	c.Yaw = math32.Pi / 4

	fitted := *c
	fitted.input, fitted.fitted = nil, nil
	c.fitted = &fitted
}

// Reset restores the view computed by the last FitToBounds.
func (c *OrbitCamera) Reset() {
	if c.fitted == nil {
		return
	}
	in, fitted, w, h := c.input, c.fitted, c.Width, c.Height
	*c = *fitted
	c.input, c.fitted, c.Width, c.Height = in, fitted, w, h
}
