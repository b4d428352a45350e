package sweep

import (
	"fmt"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/integrators"
	"github.com/xxori/elastic-pendulum/internal/metrics"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

var stateParams = map[string]int{
	"theta":       physics.Theta,
	"omega":       physics.ThetaDot,
	"length":      physics.Length,
	"length_rate": physics.LengthDot,
}

// PendulumBuilder sweeps the elastic pendulum. Parameter names are those
// of ElasticPendulum.SetParam plus the initial state components theta,
// omega, length and length_rate.
func PendulumBuilder(base physics.ElasticPendulum, x0 dynamo.State, integrator string) Build {
	x0 = x0.Clone()
	return func(params map[string]float64) (*dynamo.Simulator, dynamo.State, error) {
		p := base
		x := x0.Clone()
		for name, v := range params {
			if idx, ok := stateParams[name]; ok {
				x[idx] = v
				continue
			}
			if err := p.SetParam(name, v); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", dynamo.ErrParameterBounds, err)
			}
		}
		if err := p.Validate(); err != nil {
			return nil, nil, err
		}

		integ, err := integrators.New(integrator)
		if err != nil {
			return nil, nil, err
		}
		sim := dynamo.New(&p, integ)
		sim.AddMetric(metrics.NewEnergyDrift(&p))
		sim.AddMetric(metrics.NewLengthBounds())
		return sim, x, nil
	}
}
