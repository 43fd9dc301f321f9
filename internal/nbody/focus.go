package nbody

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// G is the gravitational constant in m³/(kg·s²).
const G = 6.67408e-11

// MassFocus returns the mass-weighted centroid of every body except i and
// the combined mass of those bodies.
func MassFocus(b *Bodies, i int) (r3.Vec, float64) {
	var sum r3.Vec
	weight := 0.0
	for j := range b.Mass {
		if j == i {
			continue
		}
		sum = r3.Add(sum, r3.Scale(b.Mass[j], b.Position[j]))
		weight += b.Mass[j]
	}
	return r3.Scale(1/weight, sum), weight
}

// CircularVelocity returns the velocity body i needs for a circular orbit
// around the mass focus of the other bodies. The direction is perpendicular
// to the body-focus vector, counter-clockwise about +z.
func CircularVelocity(b *Bodies, i int, g float64) (r3.Vec, error) {
	focus, weight := MassFocus(b, i)
	delta := r3.Sub(focus, b.Position[i])
	r := r3.Norm(delta)
	if r == 0 {
		return r3.Vec{}, &StepError{Body: i, Position: b.Position[i], Focus: focus, Wrapped: ErrCoincident}
	}

	dir := r3.Cross(delta, r3.Vec{Z: 1})
	if r3.Norm(dir) == 0 {
		// delta is parallel to z
		dir = r3.Cross(delta, r3.Vec{X: 1})
	}

	v := r3.Scale(math.Sqrt(g*weight/r), r3.Unit(dir))
	if !finiteVec(v) {
		return r3.Vec{}, &StepError{Body: i, Position: b.Position[i], Focus: focus, Wrapped: ErrNonFinite}
	}
	return v, nil
}
