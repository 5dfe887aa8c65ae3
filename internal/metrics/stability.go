package metrics

import (
	"math"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// Stability is the share of observed ticks with the rod within tolerance of
// upright.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(snap dynamo.Snapshot) {
	s.samples++
	if math.Abs(snap.AngleError()) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MaxDeviation tracks the largest absolute angle error seen.
type MaxDeviation struct {
	max float64
}

func NewMaxDeviation() *MaxDeviation { return &MaxDeviation{} }

func (m *MaxDeviation) Name() string { return "max_deviation" }

func (m *MaxDeviation) Observe(snap dynamo.Snapshot) {
	m.max = math.Max(m.max, math.Abs(snap.AngleError()))
}

func (m *MaxDeviation) Value() float64 { return m.max }
func (m *MaxDeviation) Reset()         { m.max = 0 }
