package sweep

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/xxori/elastic-pendulum/internal/analysis"
	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=start:stop:count" (inclusive, evenly spaced) or
// "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || spec == "" {
		return Axis{}, fmt.Errorf("%w: axis %q: want name=start:stop:count or name=v1,v2", dynamo.ErrParameterBounds, s)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		start, err1 := strconv.ParseFloat(parts[0], 64)
		stop, err2 := strconv.ParseFloat(parts[1], 64)
		count, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || count < 1 {
			return Axis{}, fmt.Errorf("%w: axis %q: bad range", dynamo.ErrParameterBounds, s)
		}
		values := make([]float64, count)
		for i := range values {
			if count == 1 {
				values[i] = start
				break
			}
			values[i] = start + (stop-start)*float64(i)/float64(count-1)
		}
		return Axis{Name: name, Values: values}, nil
	}

	var values []float64
	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("%w: axis %q: %v", dynamo.ErrParameterBounds, s, err)
		}
		values = append(values, v)
	}
	return Axis{Name: name, Values: values}, nil
}

// Point is the outcome of one grid point. Err is set when that simulation
// failed; other points are unaffected.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

// Build prepares a fresh simulator and initial state for one grid point.
// It is called from several goroutines and must not share metrics or
// integrators between calls.
type Build func(params map[string]float64) (*dynamo.Simulator, dynamo.State, error)

// Sweep runs one simulation per point of the cartesian product of Axes.
type Sweep struct {
	Axes    []Axis
	Config  dynamo.Config
	Workers int // 0 means GOMAXPROCS
	Logger  *log.Logger
}

// Grid lists every parameter combination, last axis varying fastest.
func (s *Sweep) Grid() []map[string]float64 {
	if len(s.Axes) == 0 {
		return nil
	}
	var grid []map[string]float64
	s.expand(0, map[string]float64{}, &grid)
	return grid
}

func (s *Sweep) expand(depth int, current map[string]float64, grid *[]map[string]float64) {
	if depth == len(s.Axes) {
		*grid = append(*grid, current)
		return
	}
	axis := s.Axes[depth]
	for _, v := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[axis.Name] = v
		s.expand(depth+1, next, grid)
	}
}

// Run simulates every grid point and returns the points in Grid order.
// Only cancellation aborts the sweep.
func (s *Sweep) Run(ctx context.Context, build Build) ([]Point, error) {
	grid := s.Grid()
	points := make([]Point, len(grid))

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(grid))

	logger := s.logger()
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				points[idx] = s.runPoint(ctx, build, grid[idx])
				if err := points[idx].Err; err != nil {
					logger.Debug("sweep point failed", "params", grid[idx], "err", err)
				}
			}
		}()
	}

	for idx := range grid {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
	}
	logger.Info("sweep done", "points", len(points))
	return points, nil
}

func (s *Sweep) runPoint(ctx context.Context, build Build, params map[string]float64) Point {
	pt := Point{Params: params}

	sim, x0, err := build(params)
	if err != nil {
		pt.Err = err
		return pt
	}
	traj, err := sim.Run(ctx, x0, s.Config)
	if err != nil {
		pt.Err = err
		return pt
	}

	pt.Metrics = make(map[string]float64, len(traj.Metrics)+2)
	for k, v := range traj.Metrics {
		pt.Metrics[k] = v
	}
	events := analysis.Turnarounds(traj.Column(physics.ThetaDot))
	pt.Metrics["turnarounds"] = float64(len(events))
	pt.Metrics["mean_period"] = analysis.MeanPeriod(events, traj.Dt)
	return pt
}

func (s *Sweep) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// Best returns the successful point with the smallest value of metric.
func Best(points []Point, metric string) (Point, bool) {
	best := math.Inf(1)
	var found Point
	ok := false
	for _, pt := range points {
		if pt.Err != nil {
			continue
		}
		v, has := pt.Metrics[metric]
		if !has || math.IsNaN(v) {
			continue
		}
		if v < best {
			best, found, ok = v, pt, true
		}
	}
	return found, ok
}

// MetricNames returns the metric keys present on any successful point,
// sorted.
func MetricNames(points []Point) []string {
	seen := map[string]bool{}
	for _, pt := range points {
		for k := range pt.Metrics {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
