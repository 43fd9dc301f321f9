package metrics

import (
	"math"

	"github.com/san-kum/orrery/internal/nbody"
	"gonum.org/v1/gonum/spatial/r3"
)

// TotalEnergy returns kinetic plus pairwise potential energy. The integrator
// does not conserve it; it is only reported.
func TotalEnergy(b *nbody.Bodies, g float64) float64 {
	ke, pe := 0.0, 0.0
	for i := 0; i < b.Len(); i++ {
		ke += 0.5 * b.Mass[i] * r3.Norm2(b.Velocity[i])
		for j := i + 1; j < b.Len(); j++ {
			r := r3.Norm(r3.Sub(b.Position[j], b.Position[i]))
			if r > 0 {
				pe -= g * b.Mass[i] * b.Mass[j] / r
			}
		}
	}
	return ke + pe
}

type Energy struct {
	name        string
	g           float64
	samples     int
	totalEnergy float64
}

func NewEnergy(g float64) *Energy {
	return &Energy{name: "energy", g: g}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(b *nbody.Bodies, t float64) {
	e.totalEnergy += TotalEnergy(b, e.g)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

type EnergyDrift struct {
	name          string
	g             float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", g: g}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(b *nbody.Bodies, t float64) {
	energy := TotalEnergy(b, e.g)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
