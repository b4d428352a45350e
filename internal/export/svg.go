package export

import (
	"fmt"
	"strings"

	"github.com/xxori/elastic-pendulum/internal/analysis"
)

// PathToSVG draws the mass path with the anchor at the centre of a
// width x height image. Both axes share one scale so the path keeps its
// shape; the view extends 0.5 m beyond the furthest point. The final mass
// position is marked with a circle.
func PathToSVG(points []analysis.Point, width, height int, stroke string) string {
	if len(points) < 2 || width <= 0 || height <= 0 {
		return ""
	}

	half := analysis.Extent(points) + 0.5
	scale := float64(min(width, height)) / (2 * half)
	cx, cy := float64(width)/2, float64(height)/2
	px := func(p analysis.Point) (float64, float64) {
		return cx + p.X*scale, cy - p.Y*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke)

	for i, p := range points {
		x, y := px(p)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	last := points[len(points)-1]
	lx, ly := px(last)
	fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#1f77b4" stroke-width="1.5"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#1f77b4"/>
<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#1f77b4"/>
</svg>`,
		cx, cy, lx, ly,
		cx, cy, 0.025*scale,
		lx, ly, 0.05*scale)
	return sb.String()
}
