package sim

import (
	"fmt"
	"image/color"
)

// Frame is what a tick publishes to renderers. Positions and Colors are
// copies, index aligned, and safe to keep after the next tick.
type Frame struct {
	Index      int
	Positions  []Vec2
	Colors     []color.RGBA
	Population int
	Spawned    int // dots created this tick
	Died       int // dots culled or retired this tick
}

// Totals are cumulative counters since New
type Totals struct {
	Ticks   int
	Spawned int
	Died    int
}

// State is a deep copy of the pool
type State struct {
	Positions  []Vec2
	Velocities []Vec2
	Ages       []uint32
	Colors     []color.RGBA
}

// Simulation owns the dot pool and advances it one tick at a time.
// It is not safe for concurrent use; the driver is its only caller.
type Simulation struct {
	params Params
	pool   *pool
	rng    Source
	totals Totals
}

// New validates p and creates a simulation seeded with p.InitialCount dots
func New(p Params, src Source) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if src == nil {
		src = NewSource(0)
	}
	p.Palette = append([]color.RGBA(nil), p.Palette...)

	s := &Simulation{
		params: p,
		pool:   newPool(p.MaxDots),
		rng:    src,
	}
	for i := 0; i < p.InitialCount; i++ {
		s.spawn()
	}
	return s, nil
}

// Params returns the parameters the simulation was built with
func (s *Simulation) Params() Params {
	p := s.params
	p.Palette = append([]color.RGBA(nil), p.Palette...)
	return p
}

// Len returns the current population
func (s *Simulation) Len() int {
	return s.pool.len()
}

// Totals returns the cumulative counters
func (s *Simulation) Totals() Totals {
	return s.totals
}

// spawn appends one dot with a random position, velocity and palette color.
// Draw order is x, y, vx, vy, color.
func (s *Simulation) spawn() bool {
	if s.pool.full() {
		return false
	}
	pos := Vec2{
		X: s.rng.Float64() * s.params.Width,
		Y: s.rng.Float64() * s.params.Height,
	}
	vel := Vec2{
		X: (s.rng.Float64() - 0.5) * s.params.SpeedScale,
		Y: (s.rng.Float64() - 0.5) * s.params.SpeedScale,
	}
	c := s.params.Palette[s.rng.Intn(len(s.params.Palette))]
	return s.pool.push(pos, vel, c)
}

// Advance runs one tick for the given frame index and returns the published
// frame. Spawning is gated on frame alone.
func (s *Simulation) Advance(frame int) Frame {
	out := Frame{Index: frame}

	if frame >= 0 && frame%s.params.SpawnInterval == 0 && s.spawn() {
		out.Spawned = 1
	}

	s.integrate()
	s.pool.age()
	out.Died = s.retire()

	s.totals.Ticks++
	s.totals.Spawned += out.Spawned
	s.totals.Died += out.Died

	out.Positions = append([]Vec2(nil), s.pool.positions...)
	out.Colors = append([]color.RGBA(nil), s.pool.colors...)
	out.Population = s.pool.len()
	return out
}

// integrate moves every dot by its velocity and reflects it off the edges
func (s *Simulation) integrate() {
	w, h := s.params.Width, s.params.Height
	pos, vel := s.pool.positions, s.pool.velocities
	for i := range pos {
		pos[i].X += vel[i].X
		pos[i].Y += vel[i].Y
		pos[i].X, vel[i].X = bounce(pos[i].X, vel[i].X, w)
		pos[i].Y, vel[i].Y = bounce(pos[i].Y, vel[i].Y, h)
	}
}

// bounce flips v when x left [0, bound] and clamps x back into range
func bounce(x, v, bound float64) (float64, float64) {
	switch {
	case x < 0:
		return 0, -v
	case x > bound:
		return bound, -v
	}
	return x, v
}

// retire applies the death policy and returns how many dots died this tick
func (s *Simulation) retire() int {
	lifespan := uint32(s.params.Lifespan)
	p := s.pool

	if s.params.Policy == Recolor {
		n := 0
		for i, a := range p.ages {
			if a <= lifespan {
				continue
			}
			if a == lifespan+1 {
				n++
			}
			p.colors[i] = Retired
		}
		return n
	}

	return p.compact(func(i int) bool {
		return p.ages[i] <= lifespan
	})
}

// Snapshot returns a deep copy of the pool
func (s *Simulation) Snapshot() State {
	p := s.pool
	return State{
		Positions:  append([]Vec2(nil), p.positions...),
		Velocities: append([]Vec2(nil), p.velocities...),
		Ages:       append([]uint32(nil), p.ages...),
		Colors:     append([]color.RGBA(nil), p.colors...),
	}
}
