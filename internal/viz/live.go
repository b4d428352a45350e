package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/xxori/elastic-pendulum/internal/analysis"
	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

const (
	canvasWidth  = 60
	canvasHeight = 24
	graphWidth   = 30
)

type TickMsg time.Time

// LiveModel replays a finished trajectory at real-time speed.
type LiveModel struct {
	title    string
	traj     *dynamo.Trajectory
	path     []analysis.Point
	energy   []float64
	half     float64
	fps      int
	stride   int
	idx      int
	paused   bool
	canvas   *Canvas
	progress progress.Model
}

// NewLiveModel prepares playback of traj at fps frames per second. sys
// supplies the energy readout and may be nil.
func NewLiveModel(title string, traj *dynamo.Trajectory, sys dynamo.Hamiltonian, fps int) LiveModel {
	if fps <= 0 {
		fps = 20
	}
	stride := 1
	if traj.Dt > 0 {
		stride = max(1, int(1/float64(fps)/traj.Dt+1e-9))
	}

	path := analysis.CartesianPath(traj)
	energy := make([]float64, traj.Len())
	if sys != nil {
		for i, s := range traj.States {
			energy[i] = sys.Energy(s)
		}
	}

	return LiveModel{
		title:    title,
		traj:     traj,
		path:     path,
		energy:   energy,
		half:     analysis.Extent(path) + 0.5,
		fps:      fps,
		stride:   stride,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
	}
}

func (m LiveModel) Index() int { return m.idx }
func (m LiveModel) Paused() bool { return m.paused }
func (m LiveModel) Finished() bool { return m.idx >= m.traj.Len()-1 }
func (m LiveModel) Time() float64 { return m.traj.Times[m.idx] }
func (m LiveModel) Stride() int { return m.stride }

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.idx = 0
			m.paused = false
		}
	case TickMsg:
		if !m.paused && !m.Finished() {
			m.idx = min(m.idx+m.stride, m.traj.Len()-1)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) draw() {
	m.canvas.Clear()

	prevX, prevY := m.canvas.Project(m.path[0].X, m.path[0].Y, m.half)
	for _, p := range m.path[1 : m.idx+1] {
		x, y := m.canvas.Project(p.X, p.Y, m.half)
		m.canvas.DrawLine(prevX, prevY, x, y)
		prevX, prevY = x, y
	}

	ax, ay := m.canvas.Project(0, 0, m.half)
	mass := m.path[m.idx]
	bx, by := m.canvas.Project(mass.X, mass.Y, m.half)
	m.canvas.DrawLine(ax, ay, bx, by)
	m.canvas.DrawCircle(ax, ay, 1)
	m.canvas.DrawCircle(bx, by, 2)
}

func (m LiveModel) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	s := m.traj.States[m.idx]
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	switch {
	case m.Finished():
		b.WriteString(statusPaused.Render("FINISHED"))
	case m.paused:
		b.WriteString(statusPaused.Render("PAUSED"))
	default:
		b.WriteString(statusRunning.Render("PLAYING"))
	}
	b.WriteString("\n\n")

	if m.idx > 1 {
		history := downsample(m.traj.Column(physics.Theta)[:m.idx+1], graphWidth)
		chart := asciigraph.Plot(history, asciigraph.Height(5), asciigraph.Width(graphWidth), asciigraph.Caption("θ (rad)"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}

	b.WriteString(Field("Time", fmt.Sprintf("%.2f s", m.Time())) + "\n")
	b.WriteString(Field("θ", fmt.Sprintf("%.1f°", s[physics.Theta]*180/math.Pi)) + "\n")
	b.WriteString(Field("dθ/dt", fmt.Sprintf("%.1f°/s", s[physics.ThetaDot]*180/math.Pi)) + "\n")
	b.WriteString(Field("Length", fmt.Sprintf("%.3f m", s[physics.Length])) + "\n")
	b.WriteString(Field("Energy", fmt.Sprintf("%.4f J", m.energy[m.idx])) + "\n\n")

	frac := 0.0
	if n := m.traj.Len() - 1; n > 0 {
		frac = float64(m.idx) / float64(n)
	}
	b.WriteString(m.progress.ViewAs(frac) + "\n")
	b.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
}

// downsample keeps at most n evenly spaced values, always including the
// last one.
func downsample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}
