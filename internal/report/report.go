package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/olivierh59500/dot-spawner/internal/sim"
)

var (
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Recorder is a renderer that keeps population history for a summary
type Recorder struct {
	population []float64
	spawned    int
	died       int
	peak       int
	last       sim.Frame
}

func New() *Recorder {
	return &Recorder{}
}

// Render records f
func (r *Recorder) Render(f sim.Frame) error {
	r.population = append(r.population, float64(f.Population))
	r.spawned += f.Spawned
	r.died += f.Died
	if f.Population > r.peak {
		r.peak = f.Population
	}
	r.last = f
	return nil
}

// Frames returns how many frames were recorded
func (r *Recorder) Frames() int {
	return len(r.population)
}

// Population returns the recorded population history
func (r *Recorder) Population() []int {
	out := make([]int, len(r.population))
	for i, p := range r.population {
		out[i] = int(p)
	}
	return out
}

// Summary renders the totals and a population chart
func (r *Recorder) Summary(policy sim.DeathPolicy) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("dots"))
	b.WriteString("\n")

	rows := [][2]string{
		{"frames", fmt.Sprint(len(r.population))},
		{"policy", policy.String()},
		{"population", fmt.Sprint(r.last.Population)},
		{"peak", fmt.Sprint(r.peak)},
		{"spawned", fmt.Sprint(r.spawned)},
		{"died", fmt.Sprint(r.died)},
	}
	for _, row := range rows {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), valueStyle.Render(row[1])))
		b.WriteString("\n")
	}

	if len(r.population) > 1 {
		chart := asciigraph.Plot(r.population,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("population"))
		b.WriteString("\n")
		b.WriteString(chart)
	}
	return boxStyle.Render(b.String())
}
