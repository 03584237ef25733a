package sim

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// DeathPolicy decides what happens to a dot once its age exceeds the lifespan
type DeathPolicy int

const (
	// Cull removes dead dots from the pool
	Cull DeathPolicy = iota
	// Recolor keeps dead dots moving but paints them Retired
	Recolor
)

func (d DeathPolicy) String() string {
	switch d {
	case Cull:
		return "cull"
	case Recolor:
		return "recolor"
	default:
		return fmt.Sprintf("DeathPolicy(%d)", int(d))
	}
}

// ParsePolicy maps "cull" or "recolor" to a DeathPolicy
func ParsePolicy(s string) (DeathPolicy, error) {
	switch s {
	case "cull", "":
		return Cull, nil
	case "recolor":
		return Recolor, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrPolicy, s)
}

// Precondition errors returned by Params.Validate
var (
	ErrBounds        = errors.New("width and height must be positive")
	ErrPalette       = errors.New("palette must hold at least one color")
	ErrCount         = errors.New("invalid dot count")
	ErrSpawnInterval = errors.New("spawn interval must be positive")
	ErrLifespan      = errors.New("lifespan must not be negative")
	ErrPolicy        = errors.New("unknown death policy")
	ErrSpeed         = errors.New("speed scale must be finite")
)

// Params configures a Simulation
type Params struct {
	InitialCount  int
	MaxDots       int
	SpeedScale    float64
	SpawnInterval int
	Lifespan      int
	Width, Height float64
	Palette       []color.RGBA
	Policy        DeathPolicy
}

// Validate checks every precondition New relies on
func (p Params) Validate() error {
	if !positive(p.Width) || !positive(p.Height) {
		return fmt.Errorf("%w: got %vx%v", ErrBounds, p.Width, p.Height)
	}
	if len(p.Palette) == 0 {
		return ErrPalette
	}
	if p.MaxDots < 0 {
		return fmt.Errorf("%w: max dots %d is negative", ErrCount, p.MaxDots)
	}
	if p.InitialCount < 0 {
		return fmt.Errorf("%w: initial count %d is negative", ErrCount, p.InitialCount)
	}
	if p.InitialCount > p.MaxDots {
		return fmt.Errorf("%w: initial count %d exceeds max dots %d", ErrCount, p.InitialCount, p.MaxDots)
	}
	if math.IsNaN(p.SpeedScale) || math.IsInf(p.SpeedScale, 0) {
		return fmt.Errorf("%w: got %v", ErrSpeed, p.SpeedScale)
	}
	if p.SpawnInterval <= 0 {
		return fmt.Errorf("%w: got %d", ErrSpawnInterval, p.SpawnInterval)
	}
	if p.Lifespan < 0 || int64(p.Lifespan) >= maxAge {
		return fmt.Errorf("%w: got %d", ErrLifespan, p.Lifespan)
	}
	if p.Policy != Cull && p.Policy != Recolor {
		return fmt.Errorf("%w: %v", ErrPolicy, p.Policy)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
