package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/xxori/elastic-pendulum/internal/analysis"
	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

const (
	DefaultFPS       = 20
	DefaultDPI       = 128
	DefaultFrameSize = 6.25 * vg.Inch

	anchorRadius = 0.025
	massRadius   = 0.05
	framePadding = 0.5
)

// FramePattern is the ffmpeg input pattern matching FrameName.
const FramePattern = "%04d.png"

func FrameName(i int) string {
	return fmt.Sprintf("%04d.png", i)
}

// FrameRenderer writes one PNG per displayed sample into Dir.
type FrameRenderer struct {
	Dir    string
	FPS    int
	DPI    float64
	Size   vg.Length
	Logger *log.Logger
}

func NewFrameRenderer(dir string, fps int) *FrameRenderer {
	return &FrameRenderer{
		Dir:  dir,
		FPS:  fps,
		DPI:  DefaultDPI,
		Size: DefaultFrameSize,
	}
}

// Stride is the number of samples between displayed frames so that the
// animation plays in real time at FPS.
func (r *FrameRenderer) Stride(dt float64) int {
	if r.FPS <= 0 || dt <= 0 {
		return 1
	}
	s := int(1/float64(r.FPS)/dt + 1e-9)
	if s < 1 {
		return 1
	}
	return s
}

// RenderFrames draws every Stride-th sample and returns the number of
// frames written. Frame i shows the sample at index i*stride.
func (r *FrameRenderer) RenderFrames(ctx context.Context, traj *dynamo.Trajectory) (int, error) {
	if traj.Len() == 0 {
		return 0, fmt.Errorf("render: empty trajectory")
	}

	path := analysis.CartesianPath(traj)
	lim := maxOf(traj.Column(physics.Length)) + framePadding
	stride := r.Stride(traj.Dt)
	total := (traj.Len()-1)/stride + 1
	logger := r.logger()

	frame := 0
	for i := 0; i < traj.Len(); i += stride {
		if err := ctx.Err(); err != nil {
			return frame, err
		}

		p, err := r.framePlot(path, traj.States[i], i, lim, float64(frame)/float64(max(r.FPS, 1)))
		if err != nil {
			return frame, fmt.Errorf("frame %d: %w", frame, err)
		}

		out := filepath.Join(r.Dir, FrameName(frame))
		if err := savePNG(out, r.Size, r.Size, r.DPI, p.Draw); err != nil {
			return frame, fmt.Errorf("frame %d: %w", frame, err)
		}

		logger.Debug("frame", "n", frame, "of", total)
		frame++
	}

	if err := pruneFrames(r.Dir, frame); err != nil {
		return frame, err
	}
	return frame, nil
}

// pruneFrames removes numbered frames at index n and above, left behind by
// an earlier, longer render into the same directory.
func pruneFrames(dir string, n int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, e := range entries {
		idx, ok := frameIndex(e.Name())
		if !ok || idx < n || e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("render: stale frame: %w", err)
		}
	}
	return nil
}

// frameIndex parses a name written by FrameName.
func frameIndex(name string) (int, bool) {
	base, ok := strings.CutSuffix(name, ".png")
	if !ok || len(base) < 4 || strings.Trim(base, "0123456789") != "" {
		return 0, false
	}
	idx, err := strconv.Atoi(base)
	return idx, err == nil
}

func (r *FrameRenderer) framePlot(path []analysis.Point, s dynamo.State, i int, lim, t float64) (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()

	if i >= 2 {
		trail, err := plotter.NewLine(toXYs(path[:i]))
		if err != nil {
			return nil, err
		}
		trail.LineStyle.Color = trailColor
		trail.LineStyle.Width = vg.Points(1.5)
		p.Add(trail)
	}

	mass := path[i]
	rod, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: mass.X, Y: mass.Y}})
	if err != nil {
		return nil, err
	}
	rod.LineStyle.Color = pendulumColor
	rod.LineStyle.Width = vg.Points(1.5)
	p.Add(rod)

	span := 2 * lim
	for _, b := range []struct {
		at     analysis.Point
		radius float64
	}{
		{analysis.Point{}, anchorRadius},
		{mass, massRadius},
	} {
		sc, err := plotter.NewScatter(plotter.XYs{{X: b.at.X, Y: b.at.Y}})
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Color = pendulumColor
		sc.GlyphStyle.Radius = vg.Length(b.radius/span) * r.Size
		p.Add(sc)
	}

	caption, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: -lim, Y: lim}},
		Labels: []string{captionText(s, t)},
	})
	if err != nil {
		return nil, err
	}
	for j := range caption.TextStyle {
		caption.TextStyle[j].XAlign = draw.XLeft
		caption.TextStyle[j].YAlign = draw.YTop
		caption.TextStyle[j].Font.Size = vg.Points(11)
	}
	p.Add(caption)

	p.X.Min, p.X.Max = -lim, lim
	p.Y.Min, p.Y.Max = -lim, lim
	return p, nil
}

func captionText(s dynamo.State, t float64) string {
	return fmt.Sprintf("Time %.2f s\nθ = %.2f°\ndθ/dt = %.2f°/s\nl = %.2f m\ndl/dt = %.2f m/s",
		t,
		s[physics.Theta]*180/math.Pi,
		s[physics.ThetaDot]*180/math.Pi,
		s[physics.Length],
		s[physics.LengthDot])
}

func (r *FrameRenderer) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func toXYs(points []analysis.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i].X, xys[i].Y = p.X, p.Y
	}
	return xys
}

func maxOf(xs []float64) float64 {
	m := math.Inf(-1)
	for _, x := range xs {
		m = math.Max(m, x)
	}
	return m
}
