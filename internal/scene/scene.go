// Package scene is the in-process rendering collaborator: a flat scene graph
// of point clouds, a perspective camera and the bounding-box and projection
// math the framer and renderers share.
package scene

import (
	"image/color"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Material is the draw style of a point cloud.
type Material struct {
	Color color.RGBA
	Size  float64 // scene units
}

// DefaultMaterial is red points of size 0.1.
func DefaultMaterial() Material {
	return Material{Color: color.RGBA{R: 0xff, A: 0xff}, Size: 0.1}
}

// PointCloud is a renderable set of discrete points.
type PointCloud struct {
	Name     string
	Points   []r3.Vec
	Material Material
}

// NewPointCloud copies points into a new cloud.
func NewPointCloud(name string, points []r3.Vec, m Material) *PointCloud {
	return &PointCloud{
		Name:     name,
		Points:   append([]r3.Vec(nil), points...),
		Material: m,
	}
}

// Bounds returns the cloud's bounding box, or false when it has no points.
func (pc *PointCloud) Bounds() (r3.Box, bool) {
	return BoundsOf(pc.Points)
}

// Scene is an ordered collection of point clouds. It is safe for concurrent
// use; objects must not be mutated after Add.
type Scene struct {
	mu      sync.RWMutex
	objects []*PointCloud
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Add appends a cloud to the scene. Nil is ignored.
func (s *Scene) Add(pc *PointCloud) {
	if pc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, pc)
}

// Objects returns the scene's clouds in insertion order.
func (s *Scene) Objects() []*PointCloud {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*PointCloud(nil), s.objects...)
}

// PointCount returns the total number of points across all clouds.
func (s *Scene) PointCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, o := range s.objects {
		n += len(o.Points)
	}
	return n
}

// BoundingBox returns the axis-aligned box enclosing every point of every
// cloud, recomputed on each call. It returns false for a scene without
// points. A single point gives a zero-size box, which is still valid.
func (s *Scene) BoundingBox() (r3.Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var box r3.Box
	found := false
	for _, o := range s.objects {
		b, ok := o.Bounds()
		if !ok {
			continue
		}
		if !found {
			box, found = b, true
			continue
		}
		box = r3.Box{Min: minVec(box.Min, b.Min), Max: maxVec(box.Max, b.Max)}
	}
	return box, found
}

// BoundsOf returns the bounding box of points, or false when points is
// empty. r3.Box.Union is not used because it discards zero-volume boxes.
func BoundsOf(points []r3.Vec) (r3.Box, bool) {
	if len(points) == 0 {
		return r3.Box{}, false
	}
	box := r3.Box{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = minVec(box.Min, p)
		box.Max = maxVec(box.Max, p)
	}
	return box, true
}

// MaxDim returns the largest extent of box along any axis.
func MaxDim(box r3.Box) float64 {
	size := box.Size()
	return math.Max(size.X, math.Max(size.Y, size.Z))
}

func minVec(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVec(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
