package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects frame coordinates onto the canvas. Frames are already in
// distance units, so the default view fits roughly [-1.25, 1.25].
type Camera struct {
	Distance   float64
	Near       float64
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 8, Near: 0.1, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(50, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.02, c.Zoom/1.2) }

func (c *Camera) Reset() {
	c.RotX, c.RotY, c.Zoom = 0, 0, 1
}

// RotatePoint rotates a point around the camera's x then y axis.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	return p
}

// Project converts a point to sub-pixel coordinates on a sw x sh canvas. It
// also returns how many pixels one distance unit covers at that depth.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.Zoom, c.RotatePoint(p))
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	persp := c.Distance / (c.Distance - rot.Z)
	minDim := float64(sh)
	if float64(sw) < minDim {
		minDim = float64(sw)
	}
	pxPerUnit := minDim / 2.5 * persp * c.Zoom
	sx := int(rot.X*persp*minDim/2.5) + sw/2
	sy := int(-rot.Y*persp*minDim/2.5) + sh/2
	return sx, sy, pxPerUnit, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}
