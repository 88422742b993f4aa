package config

import "flag"

// Command-line overrides. Zero values leave the loaded setting alone.
var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagSteam       = flag.String("steam", "", "Steam installation path")
	flagSearch      = flag.String("search", "", "Extra loose file search directory")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWindowed    = flag.Bool("windowed", false, "Run in windowed mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagNoVSync     = flag.Bool("no-vsync", false, "Disable vertical sync")
	flagMSAA        = flag.Int("msaa", -1, "Multisample count, 0 disables")
	flagTickRate    = flag.Int("tick-rate", 0, "Frame loop rate in Hz")
	flagFOV         = flag.Float64("fov", 0, "Vertical field of view in degrees")
	flagScreenshots = flag.String("screenshot-format", "", "Screenshot format: png or webp")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSteam != "" {
		cfg.Data.SteamPath = *flagSteam
	}
	if *flagSearch != "" {
		cfg.Data.SearchPaths = append(cfg.Data.SearchPaths, *flagSearch)
	}

	switch {
	case *flagFullscreen:
		cfg.Graphics.Fullscreen = true
	case *flagWindowed:
		cfg.Graphics.Fullscreen = false
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagNoVSync {
		cfg.Graphics.VSync = false
	}
	if *flagMSAA >= 0 {
		cfg.Graphics.MSAA = *flagMSAA
	}

	if *flagTickRate > 0 {
		cfg.Viewer.TickRate = *flagTickRate
	}
	if *flagFOV > 0 {
		cfg.Viewer.FOV = float32(*flagFOV)
	}
	if *flagScreenshots != "" {
		cfg.Viewer.ScreenshotFormat = *flagScreenshots
	}
}
