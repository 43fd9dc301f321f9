// Package frame turns body state into the rows streamed to a renderer.
package frame

import (
	"math"

	"github.com/san-kum/orrery/internal/nbody"
)

// Frame is one row per body: x, y, z and radius, all in distance units.
type Frame [][4]float64

func (f Frame) Len() int { return len(f) }

// Distance returns the distance of body i from the origin.
func (f Frame) Distance(i int) float64 {
	r := f[i]
	return math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
}

// Emitter scales positions and radii by Unit. It never modifies the bodies.
type Emitter struct {
	Unit float64
}

func NewEmitter(unit float64) *Emitter {
	return &Emitter{Unit: unit}
}

func (e *Emitter) Emit(b *nbody.Bodies) Frame {
	inv := 1 / e.Unit
	f := make(Frame, b.Len())
	for i := range f {
		p := b.Position[i]
		f[i] = [4]float64{p.X * inv, p.Y * inv, p.Z * inv, b.Radius[i] * inv}
	}
	return f
}
