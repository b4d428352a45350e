package metrics

import (
	"math"

	"github.com/xxori/elastic-pendulum/internal/dynamo"
	"github.com/xxori/elastic-pendulum/internal/physics"
)

// Bounds tracks the range of one state component. Value reports the
// minimum.
type Bounds struct {
	name     string
	index    int
	min, max float64
	samples  int
}

func NewBounds(name string, index int) *Bounds {
	b := &Bounds{name: name, index: index}
	b.Reset()
	return b
}

func NewLengthBounds() *Bounds {
	return NewBounds("min_length", physics.Length)
}

func (b *Bounds) Name() string { return b.name }

func (b *Bounds) Observe(x dynamo.State, t float64) {
	if b.index >= len(x) {
		return
	}
	v := x[b.index]
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
	b.samples++
}

func (b *Bounds) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.min
}

func (b *Bounds) Max() float64 {
	if b.samples == 0 {
		return 0
	}
	return b.max
}

func (b *Bounds) Reset() {
	b.min = math.Inf(1)
	b.max = math.Inf(-1)
	b.samples = 0
}

// Stretch counts how often a component strays further than Threshold from
// Center. Value is the fraction of samples that stayed within it.
type Stretch struct {
	Center     float64
	Threshold  float64
	index      int
	violations int
	samples    int
}

func NewStretch(index int, center, threshold float64) *Stretch {
	return &Stretch{Center: center, Threshold: threshold, index: index}
}

func (s *Stretch) Name() string { return "within_stretch" }

func (s *Stretch) Observe(x dynamo.State, t float64) {
	if s.index >= len(x) {
		return
	}
	s.samples++
	if math.Abs(x[s.index]-s.Center) > s.Threshold {
		s.violations++
	}
}

func (s *Stretch) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stretch) Reset() {
	s.violations = 0
	s.samples = 0
}
