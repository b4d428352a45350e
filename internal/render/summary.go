package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/xxori/elastic-pendulum/internal/analysis"
	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

// Summary lays out the static overview figure.
type Summary struct {
	Width, Height vg.Length
	DPI           float64
	FontSize      vg.Length
	PanelWidth    vg.Length
}

func NewSummary() *Summary {
	return &Summary{
		Width:      13 * vg.Inch,
		Height:     6.25 * vg.Inch,
		DPI:        DefaultDPI,
		FontSize:   vg.Points(16),
		PanelWidth: 2 * vg.Inch,
	}
}

// Save writes one PNG with the parameter panel on the left, theta and
// spring extension against time in the middle, and the path on the right.
func (s *Summary) Save(path string, traj *dynamo.Trajectory, p *physics.ElasticPendulum) error {
	if traj.Len() == 0 {
		return fmt.Errorf("summary: empty trajectory")
	}

	series, err := s.seriesPlot(traj, p)
	if err != nil {
		return err
	}
	trace, err := s.pathPlot(traj)
	if err != nil {
		return err
	}
	panel, err := s.paramPanel(traj.States[0], p)
	if err != nil {
		return err
	}

	return savePNG(path, s.Width, s.Height, s.DPI, func(dc draw.Canvas) {
		left := draw.Crop(dc, 0, s.PanelWidth-s.Width, 0, 0)
		right := draw.Crop(dc, s.PanelWidth, 0, 0, 0)

		panel.Draw(left)

		tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Points(30), PadTop: vg.Points(10), PadBottom: vg.Points(10), PadRight: vg.Points(10)}
		canvases := plot.Align([][]*plot.Plot{{series, trace}}, tiles, right)
		series.Draw(canvases[0][0])
		trace.Draw(canvases[0][1])
	})
}

func (s *Summary) seriesPlot(traj *dynamo.Trajectory, p *physics.ElasticPendulum) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = "θ and x vs t"
	pl.X.Label.Text = "Time (seconds)"
	stylePlot(pl, s.FontSize)

	theta := make(plotter.XYs, traj.Len())
	ext := make(plotter.XYs, traj.Len())
	for i, st := range traj.States {
		theta[i] = plotter.XY{X: traj.Times[i], Y: st[physics.Theta]}
		ext[i] = plotter.XY{X: traj.Times[i], Y: st[physics.Length] - p.RestLength}
	}

	for i, d := range []struct {
		name string
		xys  plotter.XYs
	}{
		{"θ", theta},
		{"x", ext},
	} {
		l, err := plotter.NewLine(d.xys)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = plotutil.Color(i)
		l.LineStyle.Width = vg.Points(1.5)
		pl.Add(l)
		pl.Legend.Add(d.name, l)
	}
	pl.Legend.Top = true
	return pl, nil
}

func (s *Summary) pathPlot(traj *dynamo.Trajectory) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = "Path taken by pendulum"
	pl.X.Label.Text = "x (metres)"
	pl.Y.Label.Text = "y (metres)"
	stylePlot(pl, s.FontSize)

	l, err := plotter.NewLine(toXYs(analysis.CartesianPath(traj)))
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = pendulumColor
	pl.Add(l)
	return pl, nil
}

func (s *Summary) paramPanel(x0 dynamo.State, p *physics.ElasticPendulum) (*plot.Plot, error) {
	pl := plot.New()
	pl.HideAxes()

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0, Y: 0.5}},
		Labels: []string{ParamText(x0, p)},
	})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XLeft
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Font.Size = s.FontSize
	}
	pl.Add(labels)
	pl.X.Min, pl.X.Max = 0, 1
	pl.Y.Min, pl.Y.Max = 0, 1
	return pl, nil
}

// ParamText is the annotation block listing the run's parameters.
func ParamText(x0 dynamo.State, p *physics.ElasticPendulum) string {
	return fmt.Sprintf("k = %g N/m\nm = %g kg\ng = %g m/s²\nl0 = %g m\nθ0 = %.2f rad",
		p.Stiffness, p.Mass, p.Gravity, p.RestLength, x0[physics.Theta])
}

// SaveSummary writes the summary figure with default layout.
func SaveSummary(path string, traj *dynamo.Trajectory, p *physics.ElasticPendulum) error {
	return NewSummary().Save(path, traj, p)
}
