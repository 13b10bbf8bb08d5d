package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Layout.Physics.Repulsion != 8000 || cfg.Camera.FlyDuration != time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.UI.CellWidth != 8 || cfg.UI.CellHeight != 16 {
		t.Errorf("cell size = %vx%v", cfg.UI.CellWidth, cfg.UI.CellHeight)
	}
}

func TestParse_PartialOverridesOnlyNamedFields(t *testing.T) {
	cfg := Default()
	doc := `
layout:
  physics:
    damping: 0.9
  jitter: 0
camera:
  fly_duration: 250ms
store:
  driver: memory
`
	if err := Parse([]byte(doc), &cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Layout.Physics.Damping != 0.9 {
		t.Errorf("damping = %v", cfg.Layout.Physics.Damping)
	}
	if cfg.Layout.Physics.Repulsion != 8000 {
		t.Errorf("repulsion should keep its default, got %v", cfg.Layout.Physics.Repulsion)
	}
	if cfg.Layout.Jitter != 0 {
		t.Errorf("jitter = %v", cfg.Layout.Jitter)
	}
	if cfg.Camera.FlyDuration != 250*time.Millisecond {
		t.Errorf("fly duration = %v", cfg.Camera.FlyDuration)
	}
	if cfg.Camera.ZoomStep != 1.2 {
		t.Errorf("zoom step should keep its default, got %v", cfg.Camera.ZoomStep)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"damping zero", "layout:\n  physics:\n    damping: 0\n", "damping"},
		{"damping above one", "layout:\n  physics:\n    damping: 1.5\n", "damping"},
		{"spring length", "layout:\n  physics:\n    spring_length: -1\n", "spring_length"},
		{"empty palette", "layout:\n  palette: []\n", "palette"},
		{"radii grow", "layout:\n  radii: [10, 20, 5, 1]\n", "radii"},
		{"zoom step", "camera:\n  zoom_step: 1\n", "zoom_step"},
		{"focus scale", "camera:\n  focus_scale: 9\n", "focus_scale"},
		{"driver", "store:\n  driver: bolt\n", "store.driver"},
		{"level", "log:\n  level: loud\n", "log.level"},
		{"bad yaml", "layout: [", "parse config"},
		{"radii length", "layout:\n  radii: [1, 2]\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Parse([]byte(tt.doc), &cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if cfg.Layout.LevelSpread != 160 {
		t.Errorf("expected defaults, got %+v", cfg.Layout)
	}
	if _, err := Load(path, true); err == nil {
		t.Error("required missing file should fail")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Tree = "/tmp/tree.yaml"
	cfg.Layout.Seed = 42
	cfg.Camera.FlyDuration = 750 * time.Millisecond
	cfg.Store.Driver = "sqlite"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Tree != cfg.Tree || got.Layout.Seed != 42 || got.Camera.FlyDuration != cfg.Camera.FlyDuration || got.Store.Driver != "sqlite" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Layout.Radii != cfg.Layout.Radii {
		t.Errorf("radii = %v", got.Layout.Radii)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvTree, "/data/tree.json")
	t.Setenv(EnvStorePath, "/data/state.db")
	t.Setenv(EnvLogFile, "")

	cfg := Default()
	cfg.Log.File = "keep.log"
	cfg.ApplyEnv()
	if cfg.Tree != "/data/tree.json" || cfg.Store.Path != "/data/state.db" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Log.File != "keep.log" {
		t.Errorf("empty env var should not override, got %q", cfg.Log.File)
	}

	t.Setenv(EnvConfig, "/etc/cv.yaml")
	if got := ConfigPathFromEnv("x"); got != "/etc/cv.yaml" {
		t.Errorf("ConfigPathFromEnv = %q", got)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, true); err != nil {
		t.Errorf("empty file should load defaults, got %v", err)
	}
}
