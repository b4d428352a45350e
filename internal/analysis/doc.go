// Package analysis derives secondary artifacts from a sampled trajectory.
//
// Everything here is a pure function of data that already exists:
//
//   - [CartesianPath]: mass positions with the anchor at the origin
//   - [Turnarounds]: sample indices where the angular velocity reverses
//   - [SwingTime]: time at which the Nth full swing completes
//   - [PowerSpectrum], [DominantPeriod]: frequency content of a signal
//   - [PhasePortrait]: two state components plotted against each other
//
// # Swings
//
// Each full swing produces two turnaround events, so the Nth swing
// completes at event index 2N-1:
//
//	events := analysis.Turnarounds(traj.Column(physics.ThetaDot))
//	t, ok := analysis.SwingTime(events, 10, traj.Dt)
package analysis
