package metrics

import (
	"github.com/san-kum/orrery/internal/nbody"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bound is the fraction of observed ticks in which every body stayed within
// radius of the origin.
type Bound struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewBound(radius float64) *Bound {
	return &Bound{
		name:   "bound",
		radius: radius,
	}
}

func (s *Bound) Name() string {
	return s.name
}

func (s *Bound) Observe(b *nbody.Bodies, t float64) {
	s.samples++
	r2 := s.radius * s.radius
	for _, p := range b.Position {
		if r3.Norm2(p) > r2 {
			s.violations++
			break
		}
	}
}

func (s *Bound) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Bound) Reset() {
	s.violations = 0
	s.samples = 0
}
