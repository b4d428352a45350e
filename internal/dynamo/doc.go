// Package dynamo provides the simulation primitives shared by the rest of
// the module.
//
// The package defines the contracts for numerically solving an autonomous
// ordinary differential equation and sampling its solution on a fixed grid:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator] and [AdaptiveIntegrator]: single-step solvers
//   - [Simulator]: drives an integrator across a sample grid and
//     produces an immutable [Trajectory]
//
// # Example
//
//	sys := physics.NewElasticPendulum()
//	sim := dynamo.New(sys, integrators.NewRK45())
//	traj, err := sim.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Errors
//
// Derivative failures and non-finite states are reported as a
// [*SimulationError] wrapping [ErrSingular]; solver failures wrap
// [ErrIntegration]. Both carry the step index, time and state that
// triggered them.
package dynamo
