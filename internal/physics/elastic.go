package physics

import (
	"fmt"
	"math"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
)

// State vector layout.
const (
	Theta = iota
	ThetaDot
	Length
	LengthDot
)

const (
	DefaultRestLength = 1.0
	DefaultStiffness  = 50.0
	DefaultMass       = 2.0
	DefaultGravity    = 9.81
)

type ElasticPendulum struct {
	RestLength float64 // l0, m
	Stiffness  float64 // k, N/m
	Mass       float64 // m, kg
	Gravity    float64 // g, m/s^2
}

func NewElasticPendulum() *ElasticPendulum {
	return &ElasticPendulum{
		RestLength: DefaultRestLength,
		Stiffness:  DefaultStiffness,
		Mass:       DefaultMass,
		Gravity:    DefaultGravity,
	}
}

func (p *ElasticPendulum) StateDim() int {
	return 4
}

// Derive returns (theta_dot, theta_ddot, length_dot, length_ddot). The
// system is autonomous; t is ignored.
func (p *ElasticPendulum) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if len(x) != 4 {
		return nil, fmt.Errorf("%w: elastic pendulum state has 4 components, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	theta, omega, l, ldot := x[Theta], x[ThetaDot], x[Length], x[LengthDot]
	if l == 0 {
		return nil, fmt.Errorf("%w: spring length is zero", dynamo.ErrSingular)
	}

	sin, cos := math.Sincos(theta)
	alpha := (-p.Gravity*sin - 2*omega*ldot) / l
	lddot := l*omega*omega - p.Stiffness*(l-p.RestLength)/p.Mass + p.Gravity*cos

	dx := dynamo.State{omega, alpha, ldot, lddot}
	if !dx.IsValid() {
		return nil, fmt.Errorf("%w: non-finite derivative %v at length %g", dynamo.ErrSingular, []float64(dx), l)
	}
	return dx, nil
}

// CheckState rejects a spring that has collapsed through the anchor.
func (p *ElasticPendulum) CheckState(x dynamo.State) error {
	if len(x) != 4 {
		return fmt.Errorf("%w: elastic pendulum state has 4 components, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	if x[Length] <= 0 {
		return fmt.Errorf("%w: spring length %g", dynamo.ErrSingular, x[Length])
	}
	return nil
}

// Energy is the total mechanical energy with the potential measured from
// the anchor: kinetic + spring - m g l cos(theta).
func (p *ElasticPendulum) Energy(x dynamo.State) float64 {
	theta, omega, l, ldot := x[Theta], x[ThetaDot], x[Length], x[LengthDot]
	ke := 0.5 * p.Mass * (ldot*ldot + l*l*omega*omega)
	stretch := l - p.RestLength
	spring := 0.5 * p.Stiffness * stretch * stretch
	gravity := -p.Mass * p.Gravity * l * math.Cos(theta)
	return ke + spring + gravity
}

// Cartesian maps a state to the mass position with the anchor at the
// origin and y pointing up.
func Cartesian(x dynamo.State) (float64, float64) {
	theta, l := x[Theta], x[Length]
	return l * math.Sin(theta), -l * math.Cos(theta)
}

// EquilibriumLength is the spring length at rest hanging straight down.
func (p *ElasticPendulum) EquilibriumLength() float64 {
	return p.RestLength + p.Mass*p.Gravity/p.Stiffness
}

// PendulumPeriod is the small-angle swing period at the equilibrium length.
func (p *ElasticPendulum) PendulumPeriod() float64 {
	return 2 * math.Pi * math.Sqrt(p.EquilibriumLength()/p.Gravity)
}

// SpringPeriod is the period of small radial oscillations.
func (p *ElasticPendulum) SpringPeriod() float64 {
	return 2 * math.Pi * math.Sqrt(p.Mass/p.Stiffness)
}

func (p *ElasticPendulum) Validate() error {
	switch {
	case !(p.RestLength > 0):
		return fmt.Errorf("%w: rest length must be positive, got %g", dynamo.ErrParameterBounds, p.RestLength)
	case !(p.Stiffness > 0):
		return fmt.Errorf("%w: stiffness must be positive, got %g", dynamo.ErrParameterBounds, p.Stiffness)
	case !(p.Mass > 0):
		return fmt.Errorf("%w: mass must be positive, got %g", dynamo.ErrParameterBounds, p.Mass)
	case math.IsNaN(p.Gravity) || math.IsInf(p.Gravity, 0):
		return fmt.Errorf("%w: gravity must be finite, got %g", dynamo.ErrParameterBounds, p.Gravity)
	}
	return nil
}

func (p *ElasticPendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"rest_length": p.RestLength,
		"stiffness":   p.Stiffness,
		"mass":        p.Mass,
		"gravity":     p.Gravity,
	}
}

func (p *ElasticPendulum) SetParam(name string, value float64) error {
	switch name {
	case "rest_length":
		p.RestLength = value
	case "stiffness":
		p.Stiffness = value
	case "mass":
		p.Mass = value
	case "gravity":
		p.Gravity = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}

// InitialState builds a state vector in the model's layout.
func InitialState(theta, thetaDot, length, lengthDot float64) dynamo.State {
	return dynamo.State{theta, thetaDot, length, lengthDot}
}
