// Package window handles the SDL2 window, OpenGL context and frame loop.
package window

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/engine/input"
	"github.com/Faultbox/vmdlview/internal/logger"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	MSAA       int
	TickRate   int // frames per second, independent of vsync
}

// Window wraps the SDL2 window and OpenGL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
	input     *input.State

	onReady  func(width, height int) error
	onResize func(width, height int)
	onRedraw func() error
}

// New creates a new window with an OpenGL 4.1 core context.
func New(cfg Config) (*Window, error) {
	w := &Window{
		config: cfg,
		input:  input.NewState(),
	}
	log := logger.Named("window")

	log.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	// Set OpenGL attributes BEFORE creating window
	// We want OpenGL 4.1 Core Profile (max supported on macOS)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	if cfg.MSAA > 0 {
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, 1)
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, cfg.MSAA)
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	var err error
	w.sdlWindow, err = sdl.CreateWindow(
		cfg.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}

	w.glContext, err = w.sdlWindow.GLCreateContext()
	if err != nil {
		w.sdlWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		log.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

// OnReady registers the handler called once with the drawable size when the
// frame loop starts. An error stops Run.
func (w *Window) OnReady(fn func(width, height int) error) { w.onReady = fn }

// OnResize registers the handler called when the drawable size changes.
func (w *Window) OnResize(fn func(width, height int)) { w.onResize = fn }

// OnRedraw registers the handler called every tick before buffers are swapped.
func (w *Window) OnRedraw(fn func() error) { w.onRedraw = fn }

// Input returns the input state updated by the frame loop.
func (w *Window) Input() *input.State {
	return w.input
}

// Run drives the frame loop at the configured tick rate until the context is
// cancelled, the window is closed or a handler fails.
func (w *Window) Run(ctx context.Context) error {
	if w.onReady != nil {
		width, height := w.DrawableSize()
		if err := w.onReady(width, height); err != nil {
			return err
		}
	}

	rate := max(w.config.TickRate, 1)
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if quit := w.pollEvents(); quit {
			return nil
		}
		if w.onRedraw != nil {
			if err := w.onRedraw(); err != nil {
				return err
			}
		}
		w.sdlWindow.GLSwap()
	}
}

// pollEvents feeds SDL events into the input state. It returns true when
// the window should close.
func (w *Window) pollEvents() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return true

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED:
				if w.onResize != nil {
					w.onResize(w.DrawableSize())
				}
			case sdl.WINDOWEVENT_ENTER:
				w.input.Apply(input.Event{Type: input.EventMouseEnter})
			case sdl.WINDOWEVENT_LEAVE:
				w.input.Apply(input.Event{Type: input.EventMouseLeave})
			case sdl.WINDOWEVENT_FOCUS_GAINED:
				w.input.Apply(input.Event{Type: input.EventFocusGained})
			case sdl.WINDOWEVENT_FOCUS_LOST:
				w.input.Apply(input.Event{Type: input.EventFocusLost})
			}

		case *sdl.KeyboardEvent:
			key, ok := keys[e.Keysym.Scancode]
			if !ok {
				continue
			}
			if e.Type == sdl.KEYDOWN {
				if key == input.KeyEscape {
					return true
				}
				w.input.Apply(input.Event{Type: input.EventKeyDown, Key: key})
			} else if e.Type == sdl.KEYUP {
				w.input.Apply(input.Event{Type: input.EventKeyUp, Key: key})
			}

		case *sdl.MouseMotionEvent:
			w.input.Apply(input.Event{
				Type:   input.EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				DeltaX: float32(e.XRel),
				DeltaY: float32(e.YRel),
			})

		case *sdl.MouseButtonEvent:
			typ := input.EventMouseDown
			if e.Type == sdl.MOUSEBUTTONUP {
				typ = input.EventMouseUp
			}
			w.input.Apply(input.Event{
				Type:   typ,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: e.Button,
			})

		case *sdl.MouseWheelEvent:
			w.input.Apply(input.Event{Type: input.EventMouseWheel, DeltaY: float32(e.Y)})
		}
	}
	return false
}

var keys = map[sdl.Scancode]input.Key{
	sdl.SCANCODE_W:      input.KeyW,
	sdl.SCANCODE_A:      input.KeyA,
	sdl.SCANCODE_S:      input.KeyS,
	sdl.SCANCODE_D:      input.KeyD,
	sdl.SCANCODE_Q:      input.KeyQ,
	sdl.SCANCODE_E:      input.KeyE,
	sdl.SCANCODE_R:      input.KeyR,
	sdl.SCANCODE_F12:    input.KeyF12,
	sdl.SCANCODE_ESCAPE: input.KeyEscape,
}

// Close destroys the window and cleans up SDL2.
func (w *Window) Close() {
	logger.Named("window").Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}

// DrawableSize returns the size of the GL drawable in pixels.
func (w *Window) DrawableSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}
