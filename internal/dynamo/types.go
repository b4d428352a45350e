package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE dX/dt = f(X, t).
// Derive must not retain or mutate x.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// StateChecker is implemented by systems whose states have constraints
// beyond finiteness. CheckState returns an error wrapping ErrSingular for
// a state the system cannot continue from.
type StateChecker interface {
	CheckState(x State) error
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Tolerance bounds the local error of an adaptive step, per component:
// |err_i| <= Abs + Rel*max(|x_i|, |x_new_i|).
type Tolerance struct {
	Rel float64
	Abs float64
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// AdaptiveIntegrator attempts a step of size dt and reports whether the
// local error estimate was acceptable, together with the step size to try
// next. A rejected step returns the unchanged input state.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt float64, tol Tolerance) (next State, dtNext float64, accepted bool, err error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	RelTol        float64
	AbsTol        float64
	MaxDt         float64
	MinDt         float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		RelTol:        1e-6,
		AbsTol:        1e-9,
		MaxDt:         0.1,
		MinDt:         1e-10,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrParameterBounds, c.Dt)
	}
	if c.Duration <= 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive and finite, got %g", ErrParameterBounds, c.Duration)
	}
	if c.RelTol <= 0 && c.AbsTol <= 0 {
		return fmt.Errorf("%w: at least one of rtol/atol must be positive", ErrParameterBounds)
	}
	if c.MinDt < 0 {
		return fmt.Errorf("%w: min dt must not be negative, got %g", ErrParameterBounds, c.MinDt)
	}
	return nil
}

func (c Config) Tolerance() Tolerance {
	return Tolerance{Rel: c.RelTol, Abs: c.AbsTol}
}

// SampleTimes returns the output grid 0, dt, 2dt, ..., duration.
// The sample count is round(duration/dt)+1 so that a duration that is an
// exact multiple of dt is included despite floating point error.
func SampleTimes(duration, dt float64) []float64 {
	n := int(math.Round(duration/dt)) + 1
	if n < 1 {
		n = 1
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
	}
	return times
}

type Stats struct {
	Steps       int
	Rejected    int
	EnergyDrift float64
}

// Trajectory is the solution sampled on a fixed grid. It is produced by a
// single Simulator run and never modified afterwards.
type Trajectory struct {
	Times   []float64
	States  []State
	Dt      float64
	Metrics map[string]float64
	Stats   Stats
}

func (tr *Trajectory) Len() int { return len(tr.States) }

// Column returns component i of every sample.
func (tr *Trajectory) Column(i int) []float64 {
	col := make([]float64, len(tr.States))
	for k, s := range tr.States {
		if i < len(s) {
			col[k] = s[i]
		}
	}
	return col
}

// Horizon is the time of the last sample.
func (tr *Trajectory) Horizon() float64 {
	if len(tr.Times) == 0 {
		return 0
	}
	return tr.Times[len(tr.Times)-1]
}
