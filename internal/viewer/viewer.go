// Package viewer opens a model resource in a window and renders it.
package viewer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/assets"
	"github.com/Faultbox/vmdlview/internal/config"
	"github.com/Faultbox/vmdlview/internal/engine/camera"
	"github.com/Faultbox/vmdlview/internal/engine/debug"
	"github.com/Faultbox/vmdlview/internal/engine/gpu/opengl"
	"github.com/Faultbox/vmdlview/internal/engine/input"
	"github.com/Faultbox/vmdlview/internal/engine/material"
	"github.com/Faultbox/vmdlview/internal/engine/renderer"
	"github.com/Faultbox/vmdlview/internal/engine/window"
	"github.com/Faultbox/vmdlview/internal/logger"
)

// Viewer shows one model resource.
type Viewer struct {
	cfg    *config.Config
	target assets.Target
	assets *assets.Manager
	window *window.Window

	dev       *opengl.GL
	materials *material.Cache
	renderer  *renderer.Renderer
	shots     *debug.ScreenshotCapture
	width     int
	height    int
}

// New parses the target resource and creates the window. Nothing is drawn
// until Run. The viewer binds materials to its device once the window is
// ready and releases their textures on Close.
func New(cfg *config.Config, target assets.Target, materials *material.Cache) (*Viewer, error) {
	mgr := assets.NewManager()
	for _, dir := range cfg.Data.SearchPaths {
		mgr.AddSearchDir(dir)
	}

	res, err := mgr.OpenResource(target)
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("opening %s: %w", target, err)
	}
	data, err := res.Data()
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("opening %s: %w", target, err)
	}
	vbib, err := res.VBIB()
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("opening %s: %w", target, err)
	}

	shots, err := debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "vmdlview", cfg.Viewer.ScreenshotFormat)
	if err != nil {
		mgr.Close()
		return nil, err
	}

	win, err := window.New(window.Config{
		Title:      "vmdlview - " + target.String(),
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       cfg.Graphics.MSAA,
		TickRate:   cfg.Viewer.TickRate,
	})
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	v := &Viewer{
		cfg:       cfg,
		target:    target,
		assets:    mgr,
		window:    win,
		materials: materials,
		shots:     shots,
	}

	win.OnReady(func(width, height int) error {
		// Create the device AFTER the window, since the OpenGL context must exist
		dev, err := opengl.New()
		if err != nil {
			return err
		}
		v.dev = dev

		loader := material.NewFileLoader(mgr, dev, cfg.Viewer.Anisotropy)
		errTex, err := loader.ErrorTexture()
		if err != nil {
			return err
		}
		v.materials.Bind(loader, errTex)

		cam := camera.NewOrbitCamera(cfg.Viewer.FOV)
		cam.SetInput(win.Input())

		v.renderer = renderer.New(renderer.Config{ClearColor: cfg.Viewer.ClearColor}, dev, cam, v.materials, data, vbib)
		v.resize(width, height)
		return v.renderer.Load()
	})
	win.OnResize(v.resize)
	win.OnRedraw(v.redraw)
	return v, nil
}

func (v *Viewer) resize(width, height int) {
	v.width, v.height = width, height
	if v.renderer != nil {
		v.renderer.Resize(width, height)
	}
}

func (v *Viewer) redraw() error {
	shoot := v.window.Input().Pressed(input.KeyF12)
	if err := v.renderer.Frame(); err != nil {
		return err
	}
	if shoot {
		name, err := v.shots.Capture(v.dev, v.width, v.height)
		if err != nil {
			logger.Named("viewer").Warn("screenshot failed", zap.Error(err))
			return nil
		}
		logger.Named("viewer").Info("screenshot saved", zap.String("file", name))
	}
	return nil
}

// Run renders until ctx is cancelled or the window is closed.
func (v *Viewer) Run(ctx context.Context) error {
	logger.Named("viewer").Info("viewing", zap.String("target", v.target.String()))
	return v.window.Run(ctx)
}

// Close releases GPU resources, the window and open archives.
func (v *Viewer) Close() {
	if v.renderer != nil {
		v.renderer.Close()
	}
	// Textures do not outlive the GL context.
	if v.dev != nil {
		logger.Named("viewer").Debug("releasing material textures", zap.Int("count", v.materials.Len()))
		v.materials.Release(v.dev)
	}
	if v.dev != nil {
		v.dev.Close()
	}
	v.window.Close()

	hits, misses := v.assets.Stats()
	logger.Named("viewer").Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses))
	v.assets.Close()
}
