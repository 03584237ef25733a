package sim

import (
	"fmt"
	"image/color"
	"math"
)

// Vec2 is a 2D position or velocity
type Vec2 struct {
	X, Y float64
}

// Retired is the color given to dots that outlived their lifespan under the
// Recolor policy. Fully transparent, so renderers draw nothing.
var Retired = color.RGBA{}

const maxAge = math.MaxUint32

// pool stores the dots as parallel slices. Index i across all four slices is
// one dot. Only push and compact change the length.
type pool struct {
	positions  []Vec2
	velocities []Vec2
	ages       []uint32
	colors     []color.RGBA
	capacity   int
}

func newPool(capacity int) *pool {
	return &pool{
		positions:  make([]Vec2, 0, capacity),
		velocities: make([]Vec2, 0, capacity),
		ages:       make([]uint32, 0, capacity),
		colors:     make([]color.RGBA, 0, capacity),
		capacity:   capacity,
	}
}

func (p *pool) len() int {
	return len(p.positions)
}

// full reports whether the pool reached its capacity
func (p *pool) full() bool {
	return p.len() >= p.capacity
}

// push appends one dot with age 0 to every slice. Returns false when full.
func (p *pool) push(pos, vel Vec2, c color.RGBA) bool {
	p.check("push")
	if p.full() {
		return false
	}
	p.positions = append(p.positions, pos)
	p.velocities = append(p.velocities, vel)
	p.ages = append(p.ages, 0)
	p.colors = append(p.colors, c)
	p.check("push")
	return true
}

// compact keeps the dots for which keep returns true, in their original
// order, and returns how many were dropped.
func (p *pool) compact(keep func(i int) bool) int {
	p.check("compact")
	n := 0
	for i := range p.positions {
		if !keep(i) {
			continue
		}
		if n != i {
			p.positions[n] = p.positions[i]
			p.velocities[n] = p.velocities[i]
			p.ages[n] = p.ages[i]
			p.colors[n] = p.colors[i]
		}
		n++
	}
	removed := len(p.positions) - n
	p.positions = p.positions[:n]
	p.velocities = p.velocities[:n]
	p.ages = p.ages[:n]
	p.colors = p.colors[:n]
	p.check("compact")
	return removed
}

// age increments every age by one, saturating at the uint32 limit
func (p *pool) age() {
	for i, a := range p.ages {
		if a < maxAge {
			p.ages[i] = a + 1
		}
	}
}

func (p *pool) check(op string) {
	n := len(p.positions)
	if len(p.velocities) != n || len(p.ages) != n || len(p.colors) != n {
		panic(fmt.Sprintf("sim: %s: slice lengths diverged (pos=%d vel=%d age=%d color=%d)",
			op, n, len(p.velocities), len(p.ages), len(p.colors)))
	}
	if n > p.capacity {
		panic(fmt.Sprintf("sim: %s: %d dots exceed capacity %d", op, n, p.capacity))
	}
}
