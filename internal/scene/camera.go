package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Viewport is the pixel size of the display surface. It is fixed at
// startup; there is no resize handling.
type Viewport struct {
	Width  int
	Height int
}

// Aspect returns width/height, or 1 for a degenerate viewport.
func (v Viewport) Aspect() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}

var worldUp = r3.Vec{Y: 1}

// Camera is a perspective camera. Orientation is kept as a forward
// direction: moving Position keeps the camera looking the same way until
// the next LookAt.
type Camera struct {
	FOV    float64 // vertical, degrees
	Aspect float64
	Near   float64
	Far    float64

	Position r3.Vec

	target  r3.Vec
	forward r3.Vec
}

// NewCamera returns a camera at the origin looking down -Z.
func NewCamera(fovDeg, aspect, near, far float64) *Camera {
	return &Camera{
		FOV:     fovDeg,
		Aspect:  aspect,
		Near:    near,
		Far:     far,
		target:  r3.Vec{Z: -1},
		forward: r3.Vec{Z: -1},
	}
}

// FOVRadians returns the vertical field of view in radians.
func (c *Camera) FOVRadians() float64 {
	return c.FOV * math.Pi / 180
}

// Target returns the point passed to the last LookAt, or the point one
// unit ahead of the initial orientation.
func (c *Camera) Target() r3.Vec {
	return c.target
}

// Forward returns the unit view direction.
func (c *Camera) Forward() r3.Vec {
	return c.forward
}

// LookAt orients the camera towards target. A target equal to Position
// leaves the orientation unchanged.
func (c *Camera) LookAt(target r3.Vec) {
	c.target = target
	d := r3.Sub(target, c.Position)
	if r3.Norm(d) == 0 {
		return
	}
	c.forward = r3.Unit(d)
}

// Basis returns the camera's right, up and forward unit vectors.
func (c *Camera) Basis() (right, up, forward r3.Vec) {
	forward = c.forward
	right = r3.Cross(forward, worldUp)
	if r3.Norm(right) < 1e-12 {
		// Looking straight up or down: any horizontal right vector works.
		right = r3.Cross(forward, r3.Vec{Z: -1})
	}
	right = r3.Unit(right)
	up = r3.Cross(right, forward)
	return right, up, forward
}

// Project maps p to normalized device coordinates. X and Y are in [-1, 1]
// when p is inside the frustum; Z is the view depth along Forward. The
// second result is false when p is outside the frustum.
func (c *Camera) Project(p r3.Vec) (r3.Vec, bool) {
	right, up, forward := c.Basis()
	d := r3.Sub(p, c.Position)
	depth := r3.Dot(d, forward)
	if depth <= 0 {
		return r3.Vec{Z: depth}, false
	}

	f := 1 / math.Tan(c.FOVRadians()/2)
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	ndc := r3.Vec{
		X: f / aspect * r3.Dot(d, right) / depth,
		Y: f * r3.Dot(d, up) / depth,
		Z: depth,
	}
	inside := depth >= c.Near && depth <= c.Far &&
		math.Abs(ndc.X) <= 1 && math.Abs(ndc.Y) <= 1
	return ndc, inside
}

// Clone returns an independent copy of the camera.
func (c *Camera) Clone() *Camera {
	cp := *c
	return &cp
}
