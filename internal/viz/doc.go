// Package viz draws pendulum trajectories in the terminal.
//
// [Canvas] is a braille pixel grid with two by four dots per cell.
// [LiveModel] is a Bubble Tea program that replays a precomputed
// trajectory in real time.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Restart from t=0
//	Q     - Quit
package viz
