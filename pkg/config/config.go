// Package config loads viewer settings from a YAML file layered over
// defaults, with a few environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/gesture"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/layout"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/store"
	"github.com/Dicklesworthstone/constellation_viewer/pkg/viewport"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvConfig    = "CV_CONFIG"
	EnvTree      = "CV_TREE"
	EnvStorePath = "CV_STORE_PATH"
	EnvLogFile   = "CV_LOG_FILE"
)

// DefaultFileName is looked up in the user config directory.
const DefaultFileName = "config.yaml"

// Config is the complete viewer configuration.
type Config struct {
	// Tree is the concept tree file or directory; empty uses the built-in sample
	Tree    string            `yaml:"tree"`
	Layout  layout.Config     `yaml:"layout"`
	Camera  viewport.Settings `yaml:"camera"`
	Gesture gesture.Settings  `yaml:"gesture"`
	Store   store.Config      `yaml:"store"`
	Log     LogConfig         `yaml:"log"`
	UI      UIConfig          `yaml:"ui"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	// File receives the log; empty disables logging
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// UIConfig tunes the terminal renderer.
type UIConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	// CellWidth and CellHeight are the virtual pixels one terminal cell covers
	CellWidth  float64 `yaml:"cell_width"`
	CellHeight float64 `yaml:"cell_height"`
	// Watch reloads the tree when its file changes
	Watch bool `yaml:"watch"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Layout:  layout.DefaultConfig(),
		Camera:  viewport.DefaultSettings(),
		Gesture: gesture.DefaultSettings(),
		Store: store.Config{
			Driver: store.DriverSQLite3,
			Path:   DefaultStorePath(),
		},
		Log: LogConfig{Level: "info"},
		UI: UIConfig{
			FrameInterval: 16 * time.Millisecond,
			CellWidth:     8,
			CellHeight:    16,
			Watch:         true,
		},
	}
}

// Dir returns the per-user configuration directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "constellation_viewer")
}

// DefaultPath returns the config file path used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), DefaultFileName)
}

// DefaultStorePath returns where the view database lives by default.
func DefaultStorePath() string {
	return filepath.Join(Dir(), "state.db")
}

// Load reads path over the defaults. A missing file is not an error when
// the path was not given explicitly (required=false).
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving fields the document omits untouched,
// and validates the result.
func Parse(data []byte, cfg *Config) error {
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return cfg.Validate()
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	c.Tree = getEnv(EnvTree, c.Tree)
	c.Store.Path = getEnv(EnvStorePath, c.Store.Path)
	c.Log.File = getEnv(EnvLogFile, c.Log.File)
}

// ConfigPathFromEnv returns the config path named by CV_CONFIG, or fallback.
func ConfigPathFromEnv(fallback string) string {
	return getEnv(EnvConfig, fallback)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	p := c.Layout.Physics
	if p.Damping <= 0 || p.Damping > 1 {
		add("layout.physics.damping must be in (0, 1], got %v", p.Damping)
	}
	if p.SpringLength <= 0 {
		add("layout.physics.spring_length must be positive, got %v", p.SpringLength)
	}
	if p.Repulsion < 0 || p.SpringStiffness < 0 || p.CenterGravity < 0 {
		add("layout.physics constants must not be negative")
	}
	if len(c.Layout.Palette) == 0 {
		add("layout.palette must not be empty")
	}
	for i := 1; i < len(c.Layout.Radii); i++ {
		if c.Layout.Radii[i] > c.Layout.Radii[i-1] {
			add("layout.radii must not increase with depth: %v", c.Layout.Radii)
			break
		}
	}
	if c.Layout.Radii[len(c.Layout.Radii)-1] <= 0 {
		add("layout.radii must be positive")
	}
	if c.Layout.LevelSpread <= 0 {
		add("layout.level_spread must be positive")
	}
	if c.Layout.Jitter < 0 {
		add("layout.jitter must not be negative")
	}

	if c.Camera.ZoomStep <= 1 {
		add("camera.zoom_step must be greater than 1, got %v", c.Camera.ZoomStep)
	}
	if c.Camera.FlyDuration < 0 {
		add("camera.fly_duration must not be negative")
	}
	for name, k := range map[string]float64{
		"focus_scale":  c.Camera.FocusScale,
		"narrow_scale": c.Camera.NarrowScale,
		"wide_scale":   c.Camera.WideScale,
	} {
		if k < viewport.MinScale || k > viewport.MaxScale {
			add("camera.%s must be within [%v, %v], got %v", name, viewport.MinScale, viewport.MaxScale, k)
		}
	}

	if c.Gesture.PinchDamping <= 0 || c.Gesture.PinchDamping > 1 {
		add("gesture.pinch_damping must be in (0, 1]")
	}
	if c.Gesture.DoubleTapZoom <= 0 {
		add("gesture.double_tap_zoom must be positive")
	}

	switch strings.ToLower(c.Store.Driver) {
	case store.DriverMemory, store.DriverSQLite3, store.DriverSQLite:
	default:
		add("store.driver must be memory, sqlite3 or sqlite, got %q", c.Store.Driver)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if c.UI.FrameInterval <= 0 {
		add("ui.frame_interval must be positive")
	}
	if c.UI.CellWidth <= 0 || c.UI.CellHeight <= 0 {
		add("ui.cell_width and ui.cell_height must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
