// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`

	source string
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	MSAA       int  `yaml:"msaa"` // samples, 0 disables
}

// ViewerConfig holds frame loop and presentation settings.
type ViewerConfig struct {
	TickRate         int        `yaml:"tick_rate"` // frames per second
	ClearColor       [4]float32 `yaml:"clear_color"`
	FOV              float32    `yaml:"fov"` // vertical, degrees
	Anisotropy       float32    `yaml:"anisotropy"`
	ScreenshotDir    string     `yaml:"screenshot_dir"`
	ScreenshotFormat string     `yaml:"screenshot_format"` // png or webp
	RecentFiles      []string   `yaml:"recent_files"`
	MaxRecent        int        `yaml:"max_recent"`
}

// DataConfig holds game data locations.
type DataConfig struct {
	SteamPath    string   `yaml:"steam_path"`    // empty = autodetect
	LibraryPaths []string `yaml:"library_paths"` // extra library roots
	SearchPaths  []string `yaml:"search_paths"`  // loose file directories
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			MSAA:       4,
		},
		Viewer: ViewerConfig{
			TickRate:         60,
			ClearColor:       [4]float32{0.2, 0.3, 0.3, 1.0},
			FOV:              60,
			Anisotropy:       8,
			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
			MaxRecent:        10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// AddRecentFile moves path to the front of the recent list, trimming it to MaxRecent.
func (c *Config) AddRecentFile(path string) {
	recent := []string{path}
	for _, p := range c.Viewer.RecentFiles {
		if p != path {
			recent = append(recent, p)
		}
	}
	if c.Viewer.MaxRecent > 0 && len(recent) > c.Viewer.MaxRecent {
		recent = recent[:c.Viewer.MaxRecent]
	}
	c.Viewer.RecentFiles = recent
}
