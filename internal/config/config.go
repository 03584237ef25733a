package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivierh59500/dot-spawner/internal/sim"
)

// Reference scene
const (
	DefaultInitialCount  = 10
	DefaultMaxDots       = 1000
	DefaultDotRadius     = 5.0
	DefaultSpeedScale    = 6.0
	DefaultSpawnInterval = 5
	DefaultLifespan      = 200
	DefaultWidth         = 800.0
	DefaultHeight        = 600.0
	DefaultFrames        = 200
	DefaultTickInterval  = 20 * time.Millisecond
	DefaultStreamAddr    = "localhost:5000"
)

// DefaultPalette is the pink scheme the dots are drawn from
var DefaultPalette = []string{"#FF3EA5", "#FF7ED4", "#FFB5DA"}

// Backends
const (
	BackendWindow   = "window"
	BackendTerminal = "terminal"
	BackendStream   = "stream"
	BackendHeadless = "headless"
)

var (
	ErrBackend  = errors.New("unknown backend")
	ErrRadius   = errors.New("dot radius must be positive")
	ErrInterval = errors.New("tick interval must be positive")
	ErrFrames   = errors.New("frame budget must not be negative")
	ErrUnknown  = errors.New("unknown config keys")
)

// Duration decodes TOML strings such as "20ms"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is every tunable of the program
type Config struct {
	InitialCount  int      `toml:"initial_count"`
	MaxDots       int      `toml:"max_dots"`
	DotRadius     float64  `toml:"dot_radius"`
	SpeedScale    float64  `toml:"speed_scale"`
	SpawnInterval int      `toml:"spawn_interval"`
	Lifespan      int      `toml:"lifespan"`
	Width         float64  `toml:"width"`
	Height        float64  `toml:"height"`
	Palette       []string `toml:"palette"`
	DeathPolicy   string   `toml:"death_policy"`
	Seed          int64    `toml:"seed"`

	Frames       int      `toml:"frames"`
	TickInterval Duration `toml:"tick_interval"`
	Backend      string   `toml:"backend"`
	StreamAddr   string   `toml:"stream_addr"`
	Debug        bool     `toml:"debug"`
}

// Default returns the reference configuration
func Default() Config {
	return Config{
		InitialCount:  DefaultInitialCount,
		MaxDots:       DefaultMaxDots,
		DotRadius:     DefaultDotRadius,
		SpeedScale:    DefaultSpeedScale,
		SpawnInterval: DefaultSpawnInterval,
		Lifespan:      DefaultLifespan,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Palette:       append([]string(nil), DefaultPalette...),
		DeathPolicy:   sim.Cull.String(),
		Frames:        DefaultFrames,
		TickInterval:  Duration{DefaultTickInterval},
		Backend:       BackendWindow,
		StreamAddr:    DefaultStreamAddr,
	}
}

// LoadFile overlays the TOML file at path onto c. Unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config: %s: %w: %s", path, ErrUnknown, strings.Join(keys, ", "))
	}
	return nil
}

// bind registers one flag per field, writing into c
func (c *Config) bind(fs *flag.FlagSet, path *string) {
	fs.StringVar(path, "config", "", "TOML config file")
	fs.IntVar(&c.InitialCount, "initial", c.InitialCount, "dots at start")
	fs.IntVar(&c.MaxDots, "max", c.MaxDots, "maximum number of dots")
	fs.Float64Var(&c.DotRadius, "radius", c.DotRadius, "dot radius in pixels")
	fs.Float64Var(&c.SpeedScale, "speed", c.SpeedScale, "velocity scale")
	fs.IntVar(&c.SpawnInterval, "spawn", c.SpawnInterval, "frames between spawns")
	fs.IntVar(&c.Lifespan, "lifespan", c.Lifespan, "ticks a dot lives")
	fs.Float64Var(&c.Width, "width", c.Width, "screen width")
	fs.Float64Var(&c.Height, "height", c.Height, "screen height")
	fs.Func("palette", "comma separated hex colors (default "+strings.Join(c.Palette, ",")+")", func(s string) error {
		c.Palette = splitList(s)
		return nil
	})
	fs.StringVar(&c.DeathPolicy, "policy", c.DeathPolicy, "death policy: cull, recolor")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed, 0 seeds from the clock")
	fs.IntVar(&c.Frames, "frames", c.Frames, "frames to run, 0 runs until stopped")
	fs.DurationVar(&c.TickInterval.Duration, "interval", c.TickInterval.Duration, "time between ticks")
	fs.StringVar(&c.Backend, "backend", c.Backend, "backend: window, terminal, stream, headless")
	fs.StringVar(&c.StreamAddr, "addr", c.StreamAddr, "listen address of the stream backend")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "write logs to logs/dots.log")
}

// Parse builds a config from defaults, then the -config file, then any flag
// set explicitly in args.
func Parse(name string, args []string) (Config, error) {
	// first pass only finds the config file
	var path string
	scratch := Default()
	pre := flag.NewFlagSet(name, flag.ContinueOnError)
	scratch.bind(pre, &path)
	if err := pre.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.bind(fs, &path)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks driver and render fields, then the simulation parameters
func (c Config) Validate() error {
	switch c.Backend {
	case BackendWindow, BackendTerminal, BackendStream, BackendHeadless:
	default:
		return fmt.Errorf("config: %w: %q", ErrBackend, c.Backend)
	}
	if c.DotRadius <= 0 {
		return fmt.Errorf("config: %w: got %v", ErrRadius, c.DotRadius)
	}
	if c.TickInterval.Duration <= 0 {
		return fmt.Errorf("config: %w: got %v", ErrInterval, c.TickInterval)
	}
	if c.Frames < 0 {
		return fmt.Errorf("config: %w: got %d", ErrFrames, c.Frames)
	}
	p, err := c.SimParams()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SimParams converts the config into simulation parameters
func (c Config) SimParams() (sim.Params, error) {
	policy, err := sim.ParsePolicy(c.DeathPolicy)
	if err != nil {
		return sim.Params{}, fmt.Errorf("config: %w", err)
	}
	palette, err := ParsePalette(c.Palette)
	if err != nil {
		return sim.Params{}, fmt.Errorf("config: %w", err)
	}
	return sim.Params{
		InitialCount:  c.InitialCount,
		MaxDots:       c.MaxDots,
		SpeedScale:    c.SpeedScale,
		SpawnInterval: c.SpawnInterval,
		Lifespan:      c.Lifespan,
		Width:         c.Width,
		Height:        c.Height,
		Palette:       palette,
		Policy:        policy,
	}, nil
}

// ParsePalette decodes "#RRGGBB" strings into opaque colors
func ParsePalette(hex []string) ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(hex))
	for _, h := range hex {
		c, err := colorful.Hex(strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", sim.ErrPalette, h, err)
		}
		r, g, b := c.RGB255()
		out = append(out, color.RGBA{R: r, G: g, B: b, A: 0xFF})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
