package nbody

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Integrator advances a Bodies value by one explicit kinematic step using
// the mass-focus force.
//
// By default bodies are updated in place in index order, so a body's mass
// focus already includes the new positions of the bodies before it. With
// Snapshot set, every body reads the positions from before the step.
type Integrator struct {
	G float64
	// PinCentral leaves body 0 where it is.
	PinCentral bool
	Snapshot   bool
}

func NewIntegrator(pinCentral bool) *Integrator {
	return &Integrator{G: G, PinCentral: pinCentral}
}

// Step moves every non-pinned body by dt seconds. A *StepError is returned
// when a body sits on its mass focus or the force is not finite. In place
// mode the store is left partially updated in that case and should be
// discarded; snapshot mode leaves it untouched.
func (in *Integrator) Step(b *Bodies, dt float64) error {
	start := 0
	if in.PinCentral {
		start = 1
	}

	if in.Snapshot {
		return in.stepSnapshot(b, start, dt)
	}

	for i := start; i < b.Len(); i++ {
		accel, err := in.acceleration(b, i)
		if err != nil {
			return err
		}
		advance(b, i, accel, dt)
	}
	return nil
}

// stepSnapshot computes every acceleration from the unchanged store before
// moving anything, so bodies can be handled concurrently.
func (in *Integrator) stepSnapshot(b *Bodies, start int, dt float64) error {
	n := b.Len() - start
	if n <= 0 {
		return nil
	}
	accels := make([]r3.Vec, n)
	errs := make([]error, n)
	parallelFor(n, snapshotChunk, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			accels[k], errs[k] = in.acceleration(b, start+k)
		}
	})

	// report the lowest failing index so errors do not depend on scheduling
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for k, accel := range accels {
		advance(b, start+k, accel, dt)
	}
	return nil
}

const snapshotChunk = 64

func advance(b *Bodies, i int, accel r3.Vec, dt float64) {
	b.Position[i] = r3.Add(b.Position[i], r3.Add(r3.Scale(dt, b.Velocity[i]), r3.Scale(dt*dt/2, accel)))
	b.Velocity[i] = r3.Add(b.Velocity[i], r3.Scale(dt, accel))
}

// Acceleration returns the mass-focus acceleration acting on body i.
func (in *Integrator) Acceleration(b *Bodies, i int) (r3.Vec, error) {
	return in.acceleration(b, i)
}

func (in *Integrator) acceleration(b *Bodies, i int) (r3.Vec, error) {
	focus, weight := MassFocus(b, i)
	delta := r3.Sub(focus, b.Position[i])
	r := r3.Norm(delta)
	if r == 0 {
		return r3.Vec{}, &StepError{Body: i, Position: b.Position[i], Focus: focus, Wrapped: ErrCoincident}
	}

	force := r3.Scale(in.G*(b.Mass[i]/(r*r*r))*weight, delta)
	accel := r3.Scale(1/b.Mass[i], force)
	if !finiteVec(accel) {
		return r3.Vec{}, &StepError{Body: i, Position: b.Position[i], Focus: focus, Wrapped: ErrNonFinite}
	}
	return accel, nil
}
