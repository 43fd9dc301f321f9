package nbody

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Astronomical constants used by the fixed layout.
const (
	AU          = 1.495978707e11 // m
	SunMass     = 1.989e30       // kg
	MercuryMass = 3.285e23
	VenusMass   = 4.867e24
	EarthMass   = 5.972e24
	EarthSpeed  = 29780.0 // m/s

	DefaultBaseRadius    = 6.95508e9 // m
	DefaultCentralRadius = 5e9       // m
)

// Initializer produces the starting state for a run.
type Initializer interface {
	Name() string
	Init(rng *rand.Rand) (*Bodies, error)
	// PinCentral reports whether body 0 should stay fixed while stepping.
	PinCentral() bool
}

// SolarSystem is a fixed four body layout: a star and three planets on the
// x-axis moving along +y. The speeds approximate circular orbits.
type SolarSystem struct {
	BaseRadius float64
}

func DefaultSolarSystem() *SolarSystem {
	return &SolarSystem{BaseRadius: DefaultBaseRadius}
}

func (s *SolarSystem) Name() string     { return "solar" }
func (s *SolarSystem) PinCentral() bool { return false }

func (s *SolarSystem) Init(_ *rand.Rand) (*Bodies, error) {
	if !(s.BaseRadius > 0) {
		return nil, fmt.Errorf("%w: base radius must be positive, got %g", ErrInvalidConfig, s.BaseRadius)
	}

	b := NewBodies(4)
	layout := []struct {
		mass, x, vy, divisor float64
	}{
		{SunMass, 0, 0, 1},
		{MercuryMass, 5.791e10, 47362, 4},
		{VenusMass, 1.082e11, 35020, 3},
		{EarthMass, AU, EarthSpeed, 2},
	}
	for i, l := range layout {
		b.Position[i] = r3.Vec{X: l.x}
		b.Velocity[i] = r3.Vec{Y: l.vy}
		b.Mass[i] = l.mass
		b.Radius[i] = s.BaseRadius / l.divisor
	}
	return b, nil
}

// RandomCluster scatters Bodies bodies around a dominant central mass at the
// origin and gives each one a circular-orbit velocity around the mass focus
// of the rest. The resulting system has Bodies+1 entries.
type RandomCluster struct {
	Bodies        int
	MinMass       float64
	MaxMass       float64
	MinDistance   float64
	MaxDistance   float64
	MaxZ          float64
	MinRadius     float64
	MaxRadius     float64
	CentralMass   float64
	CentralRadius float64
	G             float64
}

func (c *RandomCluster) Name() string     { return "random" }
func (c *RandomCluster) PinCentral() bool { return true }

func (c *RandomCluster) Validate() error {
	switch {
	case c.Bodies < 1:
		return fmt.Errorf("%w: need at least one orbiting body, got %d", ErrInvalidConfig, c.Bodies)
	case !(c.MinMass > 0) || c.MaxMass < c.MinMass:
		return fmt.Errorf("%w: mass range [%g, %g]", ErrInvalidConfig, c.MinMass, c.MaxMass)
	case c.MinDistance < 0 || !(c.MaxDistance > 0) || c.MaxDistance < c.MinDistance:
		return fmt.Errorf("%w: distance range [%g, %g]", ErrInvalidConfig, c.MinDistance, c.MaxDistance)
	case c.MaxZ < 0:
		return fmt.Errorf("%w: max z %g", ErrInvalidConfig, c.MaxZ)
	case !(c.MinRadius > 0) || c.MaxRadius < c.MinRadius:
		return fmt.Errorf("%w: radius range [%g, %g]", ErrInvalidConfig, c.MinRadius, c.MaxRadius)
	case !(c.CentralRadius > 0):
		return fmt.Errorf("%w: central radius %g", ErrInvalidConfig, c.CentralRadius)
	case c.CentralMass <= c.MaxMass:
		return fmt.Errorf("%w: central mass %g must exceed max mass %g", ErrInvalidConfig, c.CentralMass, c.MaxMass)
	case !(c.G > 0):
		return fmt.Errorf("%w: gravitational constant %g", ErrInvalidConfig, c.G)
	}
	return nil
}

func (c *RandomCluster) Init(rng *rand.Rand) (*Bodies, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	b := NewBodies(c.Bodies + 1)
	b.Mass[0] = c.CentralMass
	b.Radius[0] = c.CentralRadius

	for i := 1; i < b.Len(); i++ {
		x := uniform(rng, c.MinDistance, c.MaxDistance)
		// y is bounded so the planar distance never exceeds MaxDistance.
		hi := math.Sqrt(math.Max(c.MaxDistance*c.MaxDistance-x*x, 0))
		y := uniform(rng, math.Min(c.MinDistance, hi), hi)
		z := uniform(rng, 0, c.MaxZ)

		b.Position[i] = r3.Vec{X: x * sign(rng), Y: y * sign(rng), Z: z * sign(rng)}
		b.Mass[i] = uniform(rng, c.MinMass, c.MaxMass)
		b.Radius[i] = uniform(rng, c.MinRadius, c.MaxRadius)
	}

	// velocities depend on every other body being placed
	for i := 1; i < b.Len(); i++ {
		v, err := CircularVelocity(b, i, c.G)
		if err != nil {
			return nil, err
		}
		b.Velocity[i] = v
	}
	return b, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func sign(rng *rand.Rand) float64 {
	if rng.Float64() >= 0.5 {
		return 1
	}
	return -1
}
