package term

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/dot-spawner/internal/sim"
)

const dotRune = '●'

// Renderer draws frames onto a terminal screen. Row 0 is the status line,
// the remaining rows hold the world scaled to fit.
type Renderer struct {
	screen        tcell.Screen
	width, height float64
	policy        sim.DeathPolicy
	status        tcell.Style

	closeOnce sync.Once
}

// New takes ownership of an initialized screen
func New(screen tcell.Screen, width, height float64, policy sim.DeathPolicy) *Renderer {
	return &Renderer{
		screen: screen,
		width:  width,
		height: height,
		policy: policy,
		status: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite),
	}
}

// Open creates and initializes the real terminal screen
func Open(width, height float64, policy sim.DeathPolicy) (*Renderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	screen.HideCursor()
	return New(screen, width, height, policy), nil
}

// Render clears the screen and draws every visible dot
func (r *Renderer) Render(f sim.Frame) error {
	r.screen.Clear()
	cols, rows := r.screen.Size()
	r.drawStatus(f, cols)

	if rows > 1 && cols > 0 {
		for i, pos := range f.Positions {
			c := f.Colors[i]
			if c.A == 0 {
				continue
			}
			x, y := r.cell(pos, cols, rows-1)
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			r.screen.SetContent(x, y+1, dotRune, nil, style)
		}
	}

	r.screen.Show()
	return nil
}

// cell maps a world position onto a cols x rows grid. World y grows
// upwards, so y = 0 lands on the bottom row.
func (r *Renderer) cell(pos sim.Vec2, cols, rows int) (int, int) {
	x := int(pos.X / r.width * float64(cols-1))
	y := rows - 1 - int(pos.Y/r.height*float64(rows-1))
	return clamp(x, 0, cols-1), clamp(y, 0, rows-1)
}

func (r *Renderer) drawStatus(f sim.Frame, cols int) {
	line := fmt.Sprintf(" frame %d  dots %d  policy %s  [esc/q quits]", f.Index, f.Population, r.policy)
	for x := 0; x < cols; x++ {
		ch := ' '
		if x < len(line) {
			ch = rune(line[x])
		}
		r.screen.SetContent(x, 0, ch, nil, r.status)
	}
}

// Watch polls key events until Esc, q or Ctrl-C, then calls cancel.
// It returns when the screen is finalized.
func (r *Renderer) Watch(ctx context.Context, cancel context.CancelFunc) {
	for {
		ev := r.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				cancel()
				return
			}
		case *tcell.EventResize:
			r.screen.Sync()
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Close restores the terminal
func (r *Renderer) Close() error {
	r.closeOnce.Do(r.screen.Fini)
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
