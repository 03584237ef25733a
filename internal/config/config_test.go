package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olivierh59500/dot-spawner/internal/sim"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dots.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	p, err := cfg.SimParams()
	if err != nil {
		t.Fatalf("SimParams: %v", err)
	}
	if p.MaxDots != 1000 || p.SpawnInterval != 5 || p.Lifespan != 200 || p.Policy != sim.Cull {
		t.Errorf("unexpected reference params: %+v", p)
	}
	want := color.RGBA{0xFF, 0x3E, 0xA5, 0xFF}
	if len(p.Palette) != 3 || p.Palette[0] != want {
		t.Errorf("palette[0] = %v, want %v", p.Palette[0], want)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
max_dots = 50
lifespan = 30
palette = ["#000000", "#ffffff"]
death_policy = "recolor"
tick_interval = "16ms"
backend = "headless"
`)
	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.MaxDots != 50 || cfg.Lifespan != 30 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.TickInterval.Duration != 16*time.Millisecond {
		t.Errorf("tick interval = %v", cfg.TickInterval)
	}
	if cfg.InitialCount != DefaultInitialCount {
		t.Errorf("unset key overwritten: initial = %d", cfg.InitialCount)
	}
	p, err := cfg.SimParams()
	if err != nil {
		t.Fatalf("SimParams: %v", err)
	}
	if p.Policy != sim.Recolor || p.Palette[1] != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "max_dot = 5\n")
	cfg := Default()
	if err := cfg.LoadFile(path); !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
}

func TestParsePrecedence(t *testing.T) {
	path := writeConfig(t, "max_dots = 50\nlifespan = 30\nspeed_scale = 2.5\n")

	cfg, err := Parse("dots", []string{"-config", path, "-max", "70", "-palette", "#112233, #445566", "-backend", "headless"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MaxDots != 70 {
		t.Errorf("flag should override file, max = %d", cfg.MaxDots)
	}
	if cfg.Lifespan != 30 || cfg.SpeedScale != 2.5 {
		t.Errorf("file should override defaults, lifespan = %d speed = %v", cfg.Lifespan, cfg.SpeedScale)
	}
	if len(cfg.Palette) != 2 || cfg.Palette[1] != "#445566" {
		t.Errorf("palette flag not applied: %v", cfg.Palette)
	}
	if cfg.SpawnInterval != DefaultSpawnInterval {
		t.Errorf("spawn interval = %d, want default", cfg.SpawnInterval)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"backend", func(c *Config) { c.Backend = "vr" }, ErrBackend},
		{"radius", func(c *Config) { c.DotRadius = 0 }, ErrRadius},
		{"interval", func(c *Config) { c.TickInterval = Duration{} }, ErrInterval},
		{"frames", func(c *Config) { c.Frames = -1 }, ErrFrames},
		{"bad hex", func(c *Config) { c.Palette = []string{"pink"} }, sim.ErrPalette},
		{"empty palette", func(c *Config) { c.Palette = nil }, sim.ErrPalette},
		{"zero width", func(c *Config) { c.Width = 0 }, sim.ErrBounds},
		{"policy", func(c *Config) { c.DeathPolicy = "fade" }, sim.ErrPolicy},
		{"negative max", func(c *Config) { c.MaxDots = -1 }, sim.ErrCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRejectsInvalidFlags(t *testing.T) {
	if _, err := Parse("dots", []string{"-width", "-5"}); !errors.Is(err, sim.ErrBounds) {
		t.Errorf("expected ErrBounds, got %v", err)
	}
}
