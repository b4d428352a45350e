// Package physics provides the elastic pendulum model.
//
// [ElasticPendulum] implements [dynamo.System]: a point mass on a massless
// spring that can both swing and stretch. The state vector is
//
//	[theta, theta_dot, length, length_dot]
//
// with theta measured from the downward vertical. The model also
// implements [dynamo.Configurable] for runtime parameter adjustment and
// [dynamo.Hamiltonian] for energy calculation.
//
// # Energy Conservation
//
// The model is undamped, so total mechanical energy only drifts by the
// integrator's truncation error:
//
//	p := physics.NewElasticPendulum()
//	drift := math.Abs(p.Energy(x) - p.Energy(x0))
package physics
