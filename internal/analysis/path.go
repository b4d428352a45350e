package analysis

import (
	"math"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

type Point struct {
	X, Y float64
}

// CartesianPath maps every sample to x = l sin(theta), y = -l cos(theta).
func CartesianPath(traj *dynamo.Trajectory) []Point {
	path := make([]Point, len(traj.States))
	for i, s := range traj.States {
		path[i].X, path[i].Y = physics.Cartesian(s)
	}
	return path
}

// Extent is the largest distance of any point from the origin.
func Extent(path []Point) float64 {
	r := 0.0
	for _, p := range path {
		r = math.Max(r, math.Hypot(p.X, p.Y))
	}
	return r
}

// Split returns the x and y coordinates as separate series.
func Split(path []Point) (xs, ys []float64) {
	xs = make([]float64, len(path))
	ys = make([]float64, len(path))
	for i, p := range path {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}
