package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/orrery/internal/nbody"
	"gonum.org/v1/gonum/spatial/r3"
)

func pair() *nbody.Bodies {
	b := nbody.NewBodies(2)
	b.Mass[0], b.Mass[1] = 2, 1
	b.Position[1] = r3.Vec{X: 2}
	b.Velocity[1] = r3.Vec{Y: 3}
	return b
}

func TestTotalEnergy(t *testing.T) {
	const g = 1.0
	got := TotalEnergy(pair(), g)
	want := 0.5*1*9 - g*2*1/2.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("TotalEnergy = %v, want %v", got, want)
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy(1)

	m.Observe(pair(), 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(1)
	b := pair()

	m.Observe(b, 0)
	if m.Value() != 0 {
		t.Errorf("drift after one sample = %v, want 0", m.Value())
	}

	b.Velocity[1] = r3.Vec{Y: 4}
	m.Observe(b, 1)
	e0 := 0.5*9 - 1.0
	e1 := 0.5*16 - 1.0
	want := math.Abs(e1-e0) / math.Abs(e0)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("drift = %v, want %v", m.Value(), want)
	}
}

func TestEnergyDrift_SolarSystemStaysSmall(t *testing.T) {
	b, err := nbody.DefaultSolarSystem().Init(nil)
	if err != nil {
		t.Fatal(err)
	}
	integ := nbody.NewIntegrator(false)
	m := NewEnergyDrift(nbody.G)

	for i := 0; i < 24; i++ {
		if err := integ.Step(b, 3600); err != nil {
			t.Fatal(err)
		}
		m.Observe(b, float64(i))
	}
	if m.Value() > 0.05 {
		t.Errorf("energy drift over one day = %v", m.Value())
	}
}

func TestBound(t *testing.T) {
	m := NewBound(3)
	if m.Value() != 1 {
		t.Errorf("bound with no samples = %v, want 1", m.Value())
	}
	b := pair()

	m.Observe(b, 0)
	b.Position[1] = r3.Vec{X: 5}
	m.Observe(b, 1)

	if m.Value() != 0.5 {
		t.Errorf("bound = %v, want 0.5", m.Value())
	}

	m.Reset()
	if m.Value() != 1 {
		t.Errorf("bound after reset = %v, want 1", m.Value())
	}
}
