// Package framing positions a camera so the whole scene is in view and
// triggers a single render.
package framing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/banshee-data/pointview/internal/monitoring"
	"github.com/banshee-data/pointview/internal/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNothingToFrame is returned when the scene holds no points. The
	// camera is left untouched and nothing is rendered.
	ErrNothingToFrame = errors.New("framing: scene has no points")

	// ErrAlreadyFramed is returned by a second Frame call.
	ErrAlreadyFramed = errors.New("framing: camera already framed")
)

// DefaultLookAtOffset is added to the box centre to get the look-at target.
var DefaultLookAtOffset = r3.Vec{X: 50, Y: 0, Z: 0}

// Renderer draws a scene from a camera.
type Renderer interface {
	Render(ctx context.Context, s *scene.Scene, cam *scene.Camera) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, s *scene.Scene, cam *scene.Camera) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, s *scene.Scene, cam *scene.Camera) error {
	return f(ctx, s, cam)
}

// Formula selects how camera distance is derived from the box size.
type Formula int

const (
	// FormulaObserved is |maxDim/2 * tan(fov*2)|, the historical behaviour.
	FormulaObserved Formula = iota
	// FormulaStandard is |maxDim/2 / tan(fov/2)|: the distance at which
	// maxDim exactly fills the vertical field of view.
	FormulaStandard
)

// String returns the config name of the formula.
func (f Formula) String() string {
	switch f {
	case FormulaObserved:
		return "observed"
	case FormulaStandard:
		return "standard"
	default:
		return "unknown"
	}
}

// ParseFormula parses a config name, defaulting to FormulaObserved.
func ParseFormula(s string) Formula {
	if s == "standard" {
		return FormulaStandard
	}
	return FormulaObserved
}

// Distance returns the camera distance for a box whose largest extent is
// maxDim, given a vertical fov in radians.
func Distance(maxDim, fovRad float64, f Formula) float64 {
	switch f {
	case FormulaStandard:
		return math.Abs(maxDim / 2 / math.Tan(fovRad/2))
	default:
		return math.Abs(maxDim / 2 * math.Tan(fovRad*2))
	}
}

// State is the framer's lifecycle: Unframed until one successful Frame.
type State int

const (
	Unframed State = iota
	Framed
)

func (s State) String() string {
	if s == Framed {
		return "framed"
	}
	return "unframed"
}

// Result records what Frame computed.
type Result struct {
	Box      r3.Box
	Center   r3.Vec
	Size     r3.Vec
	MaxDim   float64
	FOVRad   float64
	Distance float64
	Position r3.Vec
	Target   r3.Vec
}

// Framer fits a camera to a scene's bounding box. One Framer frames once.
type Framer struct {
	renderer Renderer

	// LookAtOffset is added to the box centre to form the look-at target.
	LookAtOffset r3.Vec
	Formula      Formula

	mu    sync.Mutex
	state State
	logf  func(format string, v ...interface{})
}

// New creates a Framer with the default offset and formula.
func New(r Renderer) *Framer {
	return &Framer{
		renderer:     r,
		LookAtOffset: DefaultLookAtOffset,
		Formula:      FormulaObserved,
		logf:         monitoring.Prefixed("framing"),
	}
}

// State returns the current lifecycle state.
func (f *Framer) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Frame repositions cam to view the whole of s, then renders once.
//
// The camera is placed on the +Z side of the box centre at Distance and
// looks at centre+LookAtOffset. An empty scene returns ErrNothingToFrame.
// If the render fails the camera keeps its new pose but the framer stays
// Unframed.
func (f *Framer) Frame(ctx context.Context, s *scene.Scene, cam *scene.Camera) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == Framed {
		return Result{}, ErrAlreadyFramed
	}

	box, ok := s.BoundingBox()
	if !ok {
		f.logf("skipping framing: scene has no points")
		return Result{}, ErrNothingToFrame
	}

	res := Result{
		Box:    box,
		Center: box.Center(),
		Size:   box.Size(),
		MaxDim: scene.MaxDim(box),
		FOVRad: cam.FOVRadians(),
	}
	res.Distance = Distance(res.MaxDim, res.FOVRad, f.Formula)
	res.Position = r3.Vec{X: res.Center.X, Y: res.Center.Y, Z: res.Center.Z + res.Distance}
	res.Target = r3.Add(res.Center, f.LookAtOffset)

	cam.Position = res.Position
	cam.LookAt(res.Target)

	f.logf("framed %d points: center=(%.3f, %.3f, %.3f) maxDim=%.3f distance=%.3f (%s)",
		s.PointCount(), res.Center.X, res.Center.Y, res.Center.Z, res.MaxDim, res.Distance, f.Formula)

	if f.renderer != nil {
		if err := f.renderer.Render(ctx, s, cam); err != nil {
			return res, fmt.Errorf("framing: render: %w", err)
		}
	}

	f.state = Framed
	return res, nil
}
