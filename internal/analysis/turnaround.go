package analysis

import "math"

// Turnarounds returns, in order, every sample index i where the angular
// velocity reverses: thetaDot[i] is exactly zero (i > 0), or thetaDot[i]
// and thetaDot[i+1] have different signs. The earlier index of a crossing
// pair is reported. The last sample has no successor and is only an event
// if it is exactly zero.
func Turnarounds(thetaDot []float64) []int {
	events := make([]int, 0)
	for i, v := range thetaDot {
		if v == 0 && i != 0 {
			events = append(events, i)
			continue
		}
		if i+1 < len(thetaDot) && sign(v) != sign(thetaDot[i+1]) {
			events = append(events, i)
		}
	}
	return events
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// SwingEventIndex is the position in the event list at which the nth full
// swing completes.
func SwingEventIndex(n int) int {
	return 2*n - 1
}

// SwingTime reports the time of the nth full swing as the sample time of
// its closing turnaround. ok is false when the events do not reach it.
func SwingTime(events []int, n int, dt float64) (t float64, ok bool) {
	idx := SwingEventIndex(n)
	if n < 1 || idx >= len(events) {
		return 0, false
	}
	return float64(events[idx]) * dt, true
}

// InterpolatedCrossing estimates where thetaDot actually crosses zero
// between samples i and i+1 by linear interpolation. It falls back to
// times[i] when there is no bracketing pair.
func InterpolatedCrossing(times, thetaDot []float64, i int) float64 {
	if i < 0 || i >= len(times) {
		return math.NaN()
	}
	if i+1 >= len(times) || i+1 >= len(thetaDot) {
		return times[i]
	}
	a, b := thetaDot[i], thetaDot[i+1]
	if a == b {
		return times[i]
	}
	frac := a / (a - b)
	if frac < 0 || frac > 1 || math.IsNaN(frac) {
		return times[i]
	}
	return times[i] + frac*(times[i+1]-times[i])
}

// HalfPeriods returns the time between consecutive turnarounds.
func HalfPeriods(events []int, dt float64) []float64 {
	if len(events) < 2 {
		return nil
	}
	out := make([]float64, len(events)-1)
	for i := 1; i < len(events); i++ {
		out[i-1] = float64(events[i]-events[i-1]) * dt
	}
	return out
}

// MeanPeriod is twice the mean half period, or 0 with fewer than two
// events.
func MeanPeriod(events []int, dt float64) float64 {
	halves := HalfPeriods(events, dt)
	if len(halves) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range halves {
		sum += h
	}
	return 2 * sum / float64(len(halves))
}
