package game

import (
	"image/color"
	"log"
	"math"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivierh59500/dot-spawner/internal/driver"
	"github.com/olivierh59500/dot-spawner/internal/sim"
)

// Backdrop constants
const (
	TileSize    = 40.0
	NoiseScale  = 0.004
	NoiseDrift  = 0.01 // noise z offset per frame
	NoiseAlpha  = 0x80
	NoiseWeight = 28.0
)

var background = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}

// Game drives a simulation from the ebiten loop: Update is the tick,
// Draw renders the last published frame.
type Game struct {
	driver   *driver.Driver
	frame    sim.Frame
	radius   float32
	width    int
	height   int
	Backdrop bool
	noise    *perlin.Perlin
}

// New wraps s. frames is the budget after which Update ends the game, 0 runs
// until the window closes. seed drives the backdrop noise, 0 seeds from the clock.
func New(s *sim.Simulation, frames int, radius float64, seed int64) *Game {
	p := s.Params()
	g := &Game{
		radius:   float32(radius),
		width:    int(p.Width),
		height:   int(p.Height),
		Backdrop: true,
		noise:    perlin.NewPerlin(2, 2, 3, sim.NewSource(seed).Int63()),
	}
	g.driver = driver.New(s, driver.RendererFunc(func(f sim.Frame) error {
		g.frame = f
		return nil
	}), driver.WithFrames(frames))
	return g
}

// TPS converts a tick interval into ebiten ticks per second
func TPS(interval time.Duration) int {
	if interval <= 0 {
		return ebiten.DefaultTPS
	}
	tps := int(time.Second / interval)
	if tps < 1 {
		tps = 1
	}
	return tps
}

// Run opens the window and blocks until the budget is spent or it is closed
func Run(g *Game, interval time.Duration) error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle("Dots")
	ebiten.SetTPS(TPS(interval))

	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	g.handleInput()

	done, err := g.driver.Tick()
	if err != nil {
		return err
	}
	if done {
		log.Printf("game: budget of %d frames spent", g.driver.Frame())
		return ebiten.Termination
	}
	return nil
}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	if g.Backdrop {
		g.drawBackdrop(screen)
	}

	// world y grows upwards, screen y grows downwards
	h := float32(g.height)
	for i, pos := range g.frame.Positions {
		c := g.frame.Colors[i]
		if c.A == 0 {
			continue
		}
		vector.DrawFilledCircle(screen, float32(pos.X), h-float32(pos.Y), g.radius, c, true)
	}
}

// drawBackdrop shades the screen in tiles with a slowly drifting noise field
func (g *Game) drawBackdrop(screen *ebiten.Image) {
	z := float64(g.driver.Frame()) * NoiseDrift
	for x := 0.0; x < float64(g.width); x += TileSize {
		for y := 0.0; y < float64(g.height); y += TileSize {
			n := g.noise.Noise3D(x*NoiseScale, y*NoiseScale, z)
			shade := uint8(255 - math.Min(math.Max(n+1, 0), 2)*NoiseWeight)
			col := color.NRGBA{shade, shade, shade, NoiseAlpha}
			vector.DrawFilledRect(screen, float32(x), float32(y), TileSize, TileSize, col, false)
		}
	}
}

// Layout returns the screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// handleInput processes keyboard input
func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.driver.SetPaused(!g.driver.Paused())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.Backdrop = !g.Backdrop
	}
}
