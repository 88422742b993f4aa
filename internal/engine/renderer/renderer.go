// Package renderer draws a compiled model scene every frame.
package renderer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/engine/gpu"
	"github.com/Faultbox/vmdlview/internal/engine/material"
	"github.com/Faultbox/vmdlview/internal/engine/mesh"
	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/pkg/kv3"
	"github.com/Faultbox/vmdlview/pkg/math"
	"github.com/Faultbox/vmdlview/pkg/resource"
)

// ErrNotReady is returned by Frame before a successful Load.
var ErrNotReady = errors.New("renderer: scene not loaded")

// State is the lifecycle state of a Renderer.
type State int

const (
	Unloaded State = iota
	Ready
)

// String returns the state name.
func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "unloaded"
}

// Camera produces view and projection matrices for each frame.
type Camera interface {
	Tick()
	ProjectionMatrix() math.Mat4
	ViewMatrix() math.Mat4
	SetViewportSize(width, height int)
	FitToBounds(min, max math.Vec3)
}

// Config holds renderer configuration.
type Config struct {
	ClearColor [4]float32
}

// Renderer owns the GPU resources of one model. All methods must be called
// on the goroutine that owns the graphics context.
type Renderer struct {
	config    Config
	dev       gpu.Device
	camera    Camera
	materials mesh.MaterialResolver

	data *kv3.Node
	vbib *resource.VBIB

	state State
	arena *mesh.Arena
	scene *mesh.Scene
}

// New creates an unloaded renderer for a model's DATA tree and buffers.
func New(cfg Config, dev gpu.Device, camera Camera, materials mesh.MaterialResolver, data *kv3.Node, vbib *resource.VBIB) *Renderer {
	return &Renderer{
		config:    cfg,
		dev:       dev,
		camera:    camera,
		materials: materials,
		data:      data,
		vbib:      vbib,
	}
}

// State returns the current lifecycle state.
func (r *Renderer) State() State {
	return r.state
}

// Scene returns the compiled scene, or nil before Load.
func (r *Renderer) Scene() *mesh.Scene {
	return r.scene
}

// Load uploads the model's buffers, compiles its draw calls and fits the
// camera to its bounds. It runs once; later calls do nothing. On failure
// nothing stays allocated and the renderer remains unloaded.
func (r *Renderer) Load() error {
	if r.state == Ready {
		return nil
	}

	arena, err := mesh.Upload(r.dev, r.vbib)
	if err != nil {
		return fmt.Errorf("uploading buffers: %w", err)
	}
	scene, err := mesh.Compile(r.data, r.vbib, arena, r.materials, r.dev)
	if err != nil {
		arena.Release(r.dev)
		return fmt.Errorf("compiling draw calls: %w", err)
	}

	r.arena, r.scene = arena, scene
	r.state = Ready
	r.dev.SetClearColor(r.config.ClearColor[0], r.config.ClearColor[1], r.config.ClearColor[2], r.config.ClearColor[3])
	r.camera.FitToBounds(scene.Bounds.Min, scene.Bounds.Max)

	logger.Named("renderer").Info("scene ready",
		zap.Int("drawCalls", len(scene.Commands)),
		zap.Any("min", scene.Bounds.Min),
		zap.Any("max", scene.Bounds.Max),
	)
	return nil
}

// Frame advances the camera and draws every command in order. Blend and
// alpha test are switched off again after each draw.
func (r *Renderer) Frame() error {
	if r.state != Ready {
		return ErrNotReady
	}

	r.camera.Tick()
	r.dev.Clear()
	r.dev.SetMatrix(gpu.Projection, r.camera.ProjectionMatrix())
	r.dev.SetMatrix(gpu.ModelView, r.camera.ViewMatrix())

	for i := range r.scene.Commands {
		r.draw(&r.scene.Commands[i])
	}

	r.dev.BindVertexArray(0)
	r.dev.BindBuffer(gpu.ArrayBuffer, 0)
	r.dev.BindBuffer(gpu.ElementArrayBuffer, 0)
	r.dev.BindTexture(0)
	return nil
}

func (r *Renderer) draw(cmd *mesh.DrawCommand) {
	r.dev.BindVertexArray(cmd.VertexArray)
	r.dev.BindBuffer(gpu.ArrayBuffer, r.arena.Vertex[cmd.VertexBuffer.Index])
	r.dev.BindBuffer(gpu.ElementArrayBuffer, r.arena.Index[cmd.IndexBuffer.Index])
	var tex gpu.Texture
	if cmd.Material != nil {
		tex = cmd.Material.Texture
	}
	r.dev.BindTexture(tex)

	st := material.StateFor(cmd.Material)
	if st.Blend {
		r.dev.SetBlend(true)
	}
	if st.AlphaTest {
		r.dev.SetAlphaTest(true, st.AlphaRef)
	}

	r.dev.DrawIndexed(cmd.IndexCount, cmd.IndexWidth, cmd.IndexByteOffset(), int32(cmd.BaseVertex))

	r.dev.SetBlend(false)
	r.dev.SetAlphaTest(false, 0)
}

// Resize updates the viewport and the camera aspect ratio.
func (r *Renderer) Resize(width, height int) {
	r.dev.Viewport(width, height)
	r.camera.SetViewportSize(width, height)
	logger.Named("renderer").Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Close releases the vertex arrays and buffers of the scene.
func (r *Renderer) Close() {
	if r.state != Ready {
		return
	}
	logger.Named("renderer").Info("closing renderer")
	r.scene.Release(r.dev)
	r.arena.Release(r.dev)
	r.scene, r.arena = nil, nil
	r.state = Unloaded
}
