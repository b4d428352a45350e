// Package swing finds the time at which an elastic pendulum completes its
// Nth full swing when the required integration horizon is not known in
// advance.
package swing

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/xxori/elastic-pendulum/internal/analysis"
	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

var ErrUnreachable = errors.New("target swing count unreachable within horizon limit")

const DefaultMaxDoublings = 10

// Result describes a successful search.
type Result struct {
	Time       float64 // time of the closing turnaround sample
	EventIndex int     // sample index of that turnaround
	Horizon    float64 // horizon of the run that found it
	Doublings  int
	Events     []int // every turnaround in the final run
	Trajectory *dynamo.Trajectory
}

// Refiner doubles the integration horizon, recomputing from t=0 each time,
// until the requested swing appears or a limit is hit. Config supplies dt
// and tolerances; its Duration is the initial horizon unless
// InitialHorizon is set.
type Refiner struct {
	Sim            *dynamo.Simulator
	X0             dynamo.State
	Config         dynamo.Config
	InitialHorizon float64
	MaxDoublings   int     // 0 means DefaultMaxDoublings; negative means none
	MaxHorizon     float64 // 0 means unlimited
	Logger         *log.Logger
}

func (r *Refiner) TimeForSwing(ctx context.Context, n int) (*Result, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: swing count must be at least 1, got %d", dynamo.ErrParameterBounds, n)
	}

	cfg := r.Config
	horizon := r.InitialHorizon
	if horizon <= 0 {
		horizon = cfg.Duration
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: initial horizon must be positive, got %g", dynamo.ErrParameterBounds, horizon)
	}
	if r.MaxHorizon > 0 && horizon > r.MaxHorizon {
		return nil, fmt.Errorf("%w: initial horizon %g exceeds max horizon %g", dynamo.ErrParameterBounds, horizon, r.MaxHorizon)
	}

	maxDoublings := r.MaxDoublings
	if maxDoublings == 0 {
		maxDoublings = DefaultMaxDoublings
	}
	if maxDoublings < 0 && r.MaxHorizon <= 0 {
		return nil, fmt.Errorf("%w: refiner needs a doubling or horizon limit", dynamo.ErrParameterBounds)
	}
	logger := r.logger()

	for doublings := 0; ; doublings++ {
		cfg.Duration = horizon
		traj, err := r.Sim.Run(ctx, r.X0, cfg)
		if err != nil {
			return nil, fmt.Errorf("horizon %g: %w", horizon, err)
		}

		events := analysis.Turnarounds(traj.Column(physics.ThetaDot))
		logger.Debug("searched horizon", "horizon", horizon, "events", len(events), "need", analysis.SwingEventIndex(n)+1)

		if t, ok := analysis.SwingTime(events, n, cfg.Dt); ok {
			return &Result{
				Time:       t,
				EventIndex: events[analysis.SwingEventIndex(n)],
				Horizon:    horizon,
				Doublings:  doublings,
				Events:     events,
				Trajectory: traj,
			}, nil
		}

		if maxDoublings >= 0 && doublings >= maxDoublings {
			return nil, fmt.Errorf("%w: swing %d needs event %d, found %d events after %d doublings (horizon %g)",
				ErrUnreachable, n, analysis.SwingEventIndex(n), len(events), doublings, horizon)
		}
		if r.MaxHorizon > 0 && 2*horizon > r.MaxHorizon {
			return nil, fmt.Errorf("%w: swing %d needs event %d, found %d events by horizon %g (max %g)",
				ErrUnreachable, n, analysis.SwingEventIndex(n), len(events), horizon, r.MaxHorizon)
		}

		horizon *= 2
		logger.Info("doubling horizon", "swing", n, "horizon", horizon)
	}
}

func (r *Refiner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// Refine is TimeForSwing with the default tolerances of dynamo.DefaultConfig.
func Refine(ctx context.Context, sim *dynamo.Simulator, x0 dynamo.State, horizon, dt float64, n, maxDoublings int) (float64, error) {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = dt
	r := &Refiner{
		Sim:            sim,
		X0:             x0,
		Config:         cfg,
		InitialHorizon: horizon,
		MaxDoublings:   maxDoublings,
	}
	res, err := r.TimeForSwing(ctx, n)
	if err != nil {
		return 0, err
	}
	return res.Time, nil
}
