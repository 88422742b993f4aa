package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Load builds the configuration from defaults, then the first config file
// found (or the one named by -config), then command-line flags.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
		cfg.source = path
	}

	applyFlags(cfg)

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Source returns the file the config was loaded from, or "" for defaults.
func (c *Config) Source() string {
	return c.source
}

func findConfigFile() string {
	for _, path := range []string{fileName, filepath.Join(ConfigDir(), fileName)} {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user directory holding config.yaml.
func ConfigDir() string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.TempDir()
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "vmdlview")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "vmdlview")
		}
		return filepath.Join(home, "AppData", "Roaming", "vmdlview")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vmdlview")
	}
	return filepath.Join(home, ".config", "vmdlview")
}

// loadFromFile merges a YAML file over the values already in cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// expandPaths resolves a leading "~" in every configured path.
func (c *Config) expandPaths() error {
	single := []*string{&c.Data.SteamPath, &c.Viewer.ScreenshotDir, &c.Logging.LogFile}
	for _, p := range single {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
		*p = expanded
	}
	for _, list := range [][]string{c.Data.LibraryPaths, c.Data.SearchPaths} {
		for i, p := range list {
			expanded, err := homedir.Expand(p)
			if err != nil {
				return fmt.Errorf("expanding %q: %w", p, err)
			}
			list[i] = expanded
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Viewer.TickRate <= 0 || c.Viewer.TickRate > 1000 {
		return fmt.Errorf("viewer.tick_rate must be in 1..1000, got %d", c.Viewer.TickRate)
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		return fmt.Errorf("viewer.fov must be in (0, 180), got %g", c.Viewer.FOV)
	}
	if c.Viewer.Anisotropy < 1 {
		return fmt.Errorf("viewer.anisotropy must be at least 1, got %g", c.Viewer.Anisotropy)
	}
	if c.Graphics.MSAA < 0 || c.Graphics.MSAA > 16 {
		return fmt.Errorf("graphics.msaa must be in 0..16, got %d", c.Graphics.MSAA)
	}
	switch c.Viewer.ScreenshotFormat {
	case "png", "webp":
	default:
		return fmt.Errorf("viewer.screenshot_format must be png or webp, got %q", c.Viewer.ScreenshotFormat)
	}
	return nil
}
