package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() System { return s.sys }

// Run integrates from x0 at t=0 and samples the solution at every point of
// SampleTimes(cfg.Duration, cfg.Dt). Each call starts from scratch; the
// returned Trajectory shares no memory with previous runs.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Trajectory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dim := s.sys.StateDim(); len(x0) != dim {
		return nil, fmt.Errorf("%w: want %d components, got %d", ErrDimensionMismatch, dim, len(x0))
	}
	if err := s.checkState(x0); err != nil {
		return nil, simError(0, 0, x0, err)
	}

	times := SampleTimes(cfg.Duration, cfg.Dt)
	traj := &Trajectory{
		Times:   times,
		States:  make([]State, 0, len(times)),
		Dt:      cfg.Dt,
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	traj.States = append(traj.States, x.Clone())
	s.notify(x, 0)

	initialEnergy := s.computeEnergy(x)

	adaptive, isAdaptive := s.integrator.(AdaptiveIntegrator)
	h := cfg.Dt
	if cfg.MaxDt > 0 {
		h = math.Min(h, cfg.MaxDt)
	}

	for i := 1; i < len(times); i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		t, target := times[i-1], times[i]
		if isAdaptive {
			next, hNext, err := s.advanceAdaptive(adaptive, x, t, target, h, i, cfg, &traj.Stats)
			if err != nil {
				return nil, err
			}
			x, h = next, hNext
		} else {
			next, err := s.integrator.Step(s.sys, x, t, target-t)
			if err != nil {
				return nil, simError(i, t, x, err)
			}
			traj.Stats.Steps++
			x = next
		}

		if cfg.ValidateState {
			if err := s.checkState(x); err != nil {
				return nil, simError(i, target, x, err)
			}
		}

		traj.States = append(traj.States, x.Clone())
		s.notify(x, target)
	}

	if initialEnergy != 0 {
		finalEnergy := s.computeEnergy(x)
		traj.Stats.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		traj.Metrics[m.Name()] = m.Value()
	}

	return traj, nil
}

func (s *Simulator) checkState(x State) error {
	if !x.IsValid() {
		return ErrSingular
	}
	if sc, ok := s.sys.(StateChecker); ok {
		return sc.CheckState(x)
	}
	return nil
}

// advanceAdaptive takes as many internal steps as needed to land exactly on
// target. Internal steps never overshoot the sample point.
func (s *Simulator) advanceAdaptive(integ AdaptiveIntegrator, x State, t, target, h float64, sample int, cfg Config, stats *Stats) (State, float64, error) {
	tol := cfg.Tolerance()
	for t < target {
		remaining := target - t
		step := math.Min(h, remaining)
		last := step == remaining

		next, hNext, accepted, err := integ.StepAdaptive(s.sys, x, t, step, tol)
		if err != nil {
			return nil, 0, simError(sample, t, x, err)
		}
		if cfg.MaxDt > 0 {
			hNext = math.Min(hNext, cfg.MaxDt)
		}
		if !accepted {
			stats.Rejected++
			if hNext < cfg.MinDt || hNext <= 0 || math.IsNaN(hNext) {
				return nil, 0, simError(sample, t, x, fmt.Errorf("%w: %w (dt=%g)", ErrIntegration, ErrStepTooSmall, hNext))
			}
			h = hNext
			continue
		}

		stats.Steps++
		x = next
		if last {
			t = target
		} else {
			t += step
		}
		// A step shortened to hit the sample point says little about the
		// natural step size; keep the larger of the two.
		if last && step < h {
			h = math.Max(h, hNext)
		} else {
			h = hNext
		}
	}
	return x, h, nil
}

func (s *Simulator) notify(x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) computeEnergy(x State) float64 {
	if ec, ok := s.sys.(Hamiltonian); ok {
		return ec.Energy(x)
	}
	return 0
}
