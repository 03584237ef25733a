package driver

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/olivierh59500/dot-spawner/internal/sim"
)

// Renderer consumes the frame published by each tick
type Renderer interface {
	Render(f sim.Frame) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(f sim.Frame) error

func (fn RendererFunc) Render(f sim.Frame) error { return fn(f) }

const (
	DefaultInterval = 20 * time.Millisecond
	DefaultFrames   = 200
)

// Driver calls Advance on a fixed cadence and hands frames to a renderer
type Driver struct {
	sim      *sim.Simulation
	renderer Renderer
	interval time.Duration
	frames   int
	next     int
	paused   bool
}

type Option func(*Driver)

// WithInterval sets the time between ticks
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithFrames sets the frame budget, 0 runs until the context ends
func WithFrames(n int) Option {
	return func(dr *Driver) {
		if n >= 0 {
			dr.frames = n
		}
	}
}

func New(s *sim.Simulation, r Renderer, opts ...Option) *Driver {
	d := &Driver{
		sim:      s,
		renderer: r,
		interval: DefaultInterval,
		frames:   DefaultFrames,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Frame returns the index the next tick will use
func (d *Driver) Frame() int {
	return d.next
}

// Done reports whether the frame budget is spent
func (d *Driver) Done() bool {
	return d.frames != 0 && d.next >= d.frames
}

// Paused reports whether Tick is holding the frame
func (d *Driver) Paused() bool {
	return d.paused
}

// SetPaused holds or releases the frame index for Tick
func (d *Driver) SetPaused(paused bool) {
	d.paused = paused
}

// Tick is Step for loops owned elsewhere, such as the ebiten window. It
// reports done once the budget is spent and does nothing while paused.
func (d *Driver) Tick() (done bool, err error) {
	if d.Done() {
		return true, nil
	}
	if d.paused {
		return false, nil
	}
	return false, d.Step()
}

// Step runs a single tick and renders it
func (d *Driver) Step() error {
	f := d.sim.Advance(d.next)
	d.next++
	if err := d.renderer.Render(f); err != nil {
		return fmt.Errorf("render frame %d: %w", f.Index, err)
	}
	return nil
}

// Run ticks until the frame budget is spent, ctx is done or the renderer
// fails. Cancellation is a normal stop and returns nil. A renderer that is
// also an io.Closer is closed on the way out.
func (d *Driver) Run(ctx context.Context) (err error) {
	if c, ok := d.renderer.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close renderer: %w", cerr)
			}
		}()
	}

	log.Printf("driver: start, interval %v, budget %d frames", d.interval, d.frames)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for d.frames == 0 || d.next < d.frames {
		if ctx.Err() != nil {
			log.Printf("driver: stopped at frame %d", d.next)
			return nil
		}
		if err := d.Step(); err != nil {
			log.Printf("driver: %v", err)
			return err
		}
		if d.Done() {
			break
		}
		select {
		case <-ctx.Done():
			log.Printf("driver: stopped at frame %d", d.next)
			return nil
		case <-ticker.C:
		}
	}
	log.Printf("driver: budget of %d frames spent", d.frames)
	return nil
}
