package analysis

import (
	"math"
	"reflect"
	"testing"
)

func TestTurnarounds(t *testing.T) {
	tests := []struct {
		name     string
		thetaDot []float64
		want     []int
	}{
		{"empty", nil, []int{}},
		{"single sample", []float64{1}, []int{}},
		{"no reversal", []float64{1, 2, 3, 2, 1}, []int{}},
		{"one crossing reports earlier index", []float64{1, 0.5, -0.5, -1}, []int{1}},
		{"two crossings", []float64{1, -1, -2, 3}, []int{0, 2}},
		{"zero at start is not an event by itself", []float64{0, 0, 1}, []int{1}},
		{"exact zero inside", []float64{1, 0, -1}, []int{0, 1}},
		{"exact zero at end", []float64{1, 2, 0}, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Turnarounds(tt.thetaDot)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Turnarounds(%v) = %v, want %v", tt.thetaDot, got, tt.want)
			}
		})
	}
}

func TestTurnaroundsAlternate(t *testing.T) {
	dt := 0.01
	thetaDot := make([]float64, 1001)
	for i := range thetaDot {
		thetaDot[i] = math.Cos(float64(i)*dt + 0.3)
	}

	events := Turnarounds(thetaDot)
	if len(events) == 0 {
		t.Fatal("expected events for a cosine")
	}
	for k := 1; k < len(events); k++ {
		prev := sign(thetaDot[events[k-1]])
		cur := sign(thetaDot[events[k]])
		if prev == cur {
			t.Errorf("events %d and %d have the same sign before reversal", events[k-1], events[k])
		}
	}
}

func TestSwingTime(t *testing.T) {
	events := []int{10, 25, 40, 55}

	if got := SwingEventIndex(1); got != 1 {
		t.Errorf("SwingEventIndex(1) = %d", got)
	}

	tm, ok := SwingTime(events, 1, 0.01)
	if !ok || math.Abs(tm-0.25) > 1e-12 {
		t.Errorf("SwingTime(1) = %v, %v; want 0.25, true", tm, ok)
	}
	tm, ok = SwingTime(events, 2, 0.01)
	if !ok || math.Abs(tm-0.55) > 1e-12 {
		t.Errorf("SwingTime(2) = %v, %v; want 0.55, true", tm, ok)
	}
	if _, ok := SwingTime(events, 3, 0.01); ok {
		t.Error("expected swing 3 to be out of range")
	}
	if _, ok := SwingTime(events, 0, 0.01); ok {
		t.Error("expected swing 0 to be rejected")
	}
}

func TestInterpolatedCrossing(t *testing.T) {
	times := []float64{0, 0.1, 0.2}
	thetaDot := []float64{1, -3, -1}

	got := InterpolatedCrossing(times, thetaDot, 0)
	if math.Abs(got-0.025) > 1e-12 {
		t.Errorf("expected crossing at 0.025, got %f", got)
	}
	if got := InterpolatedCrossing(times, thetaDot, 2); got != 0.2 {
		t.Errorf("last sample should fall back to its own time, got %f", got)
	}
	if got := InterpolatedCrossing(times, thetaDot, 1); got != 0.1 {
		t.Errorf("non-bracketing pair should fall back, got %f", got)
	}
}

func TestPeriods(t *testing.T) {
	events := []int{0, 100, 200, 300}

	halves := HalfPeriods(events, 0.01)
	if len(halves) != 3 {
		t.Fatalf("expected 3 half periods, got %d", len(halves))
	}
	for _, h := range halves {
		if math.Abs(h-1) > 1e-12 {
			t.Errorf("expected half period 1, got %f", h)
		}
	}
	if p := MeanPeriod(events, 0.01); math.Abs(p-2) > 1e-12 {
		t.Errorf("expected mean period 2, got %f", p)
	}
	if p := MeanPeriod([]int{5}, 0.01); p != 0 {
		t.Errorf("expected 0 for a single event, got %f", p)
	}
}

func TestTurnaroundParityOverWholePeriods(t *testing.T) {
	// Five periods of 100 samples, offset so no sample is exactly zero.
	thetaDot := make([]float64, 500)
	for i := range thetaDot {
		thetaDot[i] = math.Cos(2 * math.Pi * (float64(i) + 0.5) / 100)
	}

	events := Turnarounds(thetaDot)
	if len(events) != 10 {
		t.Fatalf("expected 10 events over 5 periods, got %d: %v", len(events), events)
	}
	if len(events)%2 != 0 {
		t.Errorf("expected an even event count, got %d", len(events))
	}
}
