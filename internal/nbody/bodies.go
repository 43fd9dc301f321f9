package nbody

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bodies holds the state of every body as parallel slices. Index i refers to
// the same body in all four slices; index 0 is the central body.
type Bodies struct {
	Position []r3.Vec  // m
	Velocity []r3.Vec  // m/s
	Mass     []float64 // kg
	Radius   []float64 // m, display only
}

func NewBodies(n int) *Bodies {
	return &Bodies{
		Position: make([]r3.Vec, n),
		Velocity: make([]r3.Vec, n),
		Mass:     make([]float64, n),
		Radius:   make([]float64, n),
	}
}

func (b *Bodies) Len() int { return len(b.Mass) }

func (b *Bodies) Clone() *Bodies {
	c := NewBodies(b.Len())
	copy(c.Position, b.Position)
	copy(c.Velocity, b.Velocity)
	copy(c.Mass, b.Mass)
	copy(c.Radius, b.Radius)
	return c
}

// TotalMass returns the sum of all masses.
func (b *Bodies) TotalMass() float64 {
	sum := 0.0
	for _, m := range b.Mass {
		sum += m
	}
	return sum
}

func (b *Bodies) IsFinite() bool {
	for i := range b.Mass {
		if !finiteVec(b.Position[i]) || !finiteVec(b.Velocity[i]) {
			return false
		}
	}
	return true
}

// Validate checks the lock-step and positivity invariants.
func (b *Bodies) Validate() error {
	n := len(b.Mass)
	if len(b.Position) != n || len(b.Velocity) != n || len(b.Radius) != n {
		return fmt.Errorf("%w: slice lengths differ (pos=%d vel=%d mass=%d radius=%d)",
			ErrInvalidBodies, len(b.Position), len(b.Velocity), n, len(b.Radius))
	}
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 bodies, got %d", ErrInvalidBodies, n)
	}
	for i, m := range b.Mass {
		if !(m > 0) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: mass[%d] = %g", ErrInvalidBodies, i, m)
		}
		if !(b.Radius[i] > 0) {
			return fmt.Errorf("%w: radius[%d] = %g", ErrInvalidBodies, i, b.Radius[i])
		}
	}
	if !b.IsFinite() {
		return fmt.Errorf("%w: NaN or Inf in position/velocity", ErrInvalidBodies)
	}
	return nil
}

func finiteVec(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
