package render

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	pendulumColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	trailColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// savePNG renders drawFn onto a w x h canvas at dpi and writes a PNG.
func savePNG(path string, w, h vg.Length, dpi float64, drawFn func(draw.Canvas)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(dpi)))
	drawFn(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		f.Close()
		return fmt.Errorf("write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write png: %w", err)
	}
	return f.Close()
}

func stylePlot(p *plot.Plot, fontSize vg.Length) {
	p.Title.TextStyle.Font.Size = fontSize * 1.2
	p.X.Label.TextStyle.Font.Size = fontSize
	p.Y.Label.TextStyle.Font.Size = fontSize
	p.X.Tick.Label.Font.Size = fontSize * 0.8
	p.Y.Tick.Label.Font.Size = fontSize * 0.8
	p.Legend.TextStyle.Font.Size = fontSize
}
