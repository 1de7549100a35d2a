// Package viewer ties loading, framing and rendering into a single-shot
// session and serves the result over HTTP.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/pointview/internal/config"
	"github.com/banshee-data/pointview/internal/framing"
	"github.com/banshee-data/pointview/internal/monitoring"
	"github.com/banshee-data/pointview/internal/pointcloud"
	"github.com/banshee-data/pointview/internal/render"
	"github.com/banshee-data/pointview/internal/scene"
	"github.com/banshee-data/pointview/internal/timeutil"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSessionStarted is returned by a second Run on the same session.
var ErrSessionStarted = errors.New("viewer: session already started")

// DatasetName names the point cloud built from the loaded source.
const DatasetName = "dataset"

// State is the session lifecycle.
type State int

const (
	Idle State = iota
	Loading
	Loaded // points in the scene, camera not framed
	Framed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Framed:
		return "framed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options configures a session's camera, material and framing.
type Options struct {
	Viewport       scene.Viewport
	FOVDeg         float64
	Near           float64
	Far            float64
	InitialCameraZ float64
	LookAtOffset   r3.Vec
	Formula        framing.Formula
	Material       scene.Material
}

// OptionsFromConfig maps a viewer config onto session options.
func OptionsFromConfig(cfg *config.ViewerConfig) Options {
	off := cfg.GetLookAtOffset()
	return Options{
		Viewport:       scene.Viewport{Width: cfg.GetViewportWidth(), Height: cfg.GetViewportHeight()},
		FOVDeg:         cfg.GetFOVDeg(),
		Near:           cfg.GetNear(),
		Far:            cfg.GetFar(),
		InitialCameraZ: cfg.GetInitialCameraZ(),
		LookAtOffset:   r3.Vec{X: off[0], Y: off[1], Z: off[2]},
		Formula:        framing.ParseFormula(cfg.GetFramingFormula()),
		Material:       scene.Material{Color: cfg.GetPointColor(), Size: cfg.GetPointSize()},
	}
}

// Session owns one scene, one camera and one framer. It replaces any
// process-wide scene state: everything a run touches hangs off the session.
type Session struct {
	ID       string
	Scene    *scene.Scene
	Viewport scene.Viewport
	Loader   *pointcloud.Loader
	Framer   *framing.Framer
	Renderer *render.SnapshotRenderer

	material scene.Material

	mu       sync.RWMutex
	camera   *scene.Camera
	state    State
	source   string
	stats    pointcloud.ParseStats
	result   *framing.Result
	lastErr  error
	started  time.Time
	finished time.Time
	clock    timeutil.Clock
	logf     func(format string, v ...interface{})
}

// NewSession creates an idle session. A nil loader uses the network and
// OS filesystem.
func NewSession(loader *pointcloud.Loader, o Options) *Session {
	if loader == nil {
		loader = pointcloud.NewLoader(nil, nil)
	}
	cam := scene.NewCamera(o.FOVDeg, o.Viewport.Aspect(), o.Near, o.Far)
	cam.Position = r3.Vec{Z: o.InitialCameraZ}

	renderer := render.NewSnapshotRenderer(o.Viewport)
	framer := framing.New(renderer)
	framer.LookAtOffset = o.LookAtOffset
	framer.Formula = o.Formula

	id := uuid.New().String()
	return &Session{
		ID:       id,
		Scene:    scene.New(),
		Viewport: o.Viewport,
		Loader:   loader,
		Framer:   framer,
		Renderer: renderer,
		material: o.Material,
		camera:   cam,
		clock:    timeutil.RealClock{},
		logf:     monitoring.Prefixed("session " + id[:8]),
	}
}

// SetClock replaces the clock used for session and frame timestamps.
func (s *Session) SetClock(c timeutil.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
	s.Renderer.Clock = c
}

// Run loads sourceURI, adds the points to the scene and frames the camera
// on them. Errors are logged and returned; a failed load leaves the scene
// empty. Run is single-shot.
func (s *Session) Run(ctx context.Context, sourceURI string) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.state = Loading
	s.source = sourceURI
	s.started = s.clock.Now()
	s.mu.Unlock()

	s.logf("loading %s", sourceURI)
	points, stats, err := s.Loader.LoadStats(ctx, sourceURI)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.finished = s.clock.Now() }()

	s.stats = stats
	if err != nil {
		s.state = Failed
		s.lastErr = err
		s.logf("load failed: %v", err)
		return err
	}

	s.Scene.Add(scene.NewPointCloud(DatasetName, points, s.material))
	s.state = Loaded

	res, err := s.Framer.Frame(ctx, s.Scene, s.camera)
	switch {
	case errors.Is(err, framing.ErrNothingToFrame):
		s.logf("nothing to frame, camera left at %v", s.camera.Position)
		return nil
	case err != nil:
		s.state = Failed
		s.lastErr = err
		s.logf("framing failed: %v", err)
		return err
	}

	s.result = &res
	s.state = Framed
	s.logf("framed %d points: centre %v distance %.4g", len(points), res.Center, res.Distance)
	return nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Camera returns a copy of the session camera.
func (s *Session) Camera() *scene.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Clone()
}

// Err returns the error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status is the JSON view of a session.
type Status struct {
	ID         string                `json:"id"`
	State      State                 `json:"state"`
	Source     string                `json:"source,omitempty"`
	PointCount int                   `json:"point_count"`
	Stats      pointcloud.ParseStats `json:"stats"`
	Bounds     *BoundsJSON           `json:"bounds,omitempty"`
	Framing    *FramingJSON          `json:"framing,omitempty"`
	Camera     CameraJSON            `json:"camera"`
	Renders    int                   `json:"renders"`
	Error      string                `json:"error,omitempty"`
	StartedAt  *time.Time            `json:"started_at,omitempty"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	DurationMS float64               `json:"duration_ms,omitempty"`
}

// BoundsJSON is an axis-aligned box.
type BoundsJSON struct {
	Min    [3]float64 `json:"min"`
	Max    [3]float64 `json:"max"`
	Center [3]float64 `json:"center"`
	Size   [3]float64 `json:"size"`
}

// FramingJSON reports the framer's result.
type FramingJSON struct {
	MaxDim   float64 `json:"max_dim"`
	FOVRad   float64 `json:"fov_rad"`
	Distance float64 `json:"distance"`
	Formula  string  `json:"formula"`
}

// CameraJSON is the camera in a form the browser viewer consumes.
type CameraJSON struct {
	FOV      float64    `json:"fov"`
	Aspect   float64    `json:"aspect"`
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
}

// Snapshot returns the current status.
func (s *Session) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		ID:         s.ID,
		State:      s.state,
		Source:     s.source,
		PointCount: s.Scene.PointCount(),
		Stats:      s.stats,
		Camera:     cameraJSON(s.camera),
		Renders:    s.Renderer.Renders(),
	}
	if box, ok := s.Scene.BoundingBox(); ok {
		st.Bounds = &BoundsJSON{
			Min:    vec3(box.Min),
			Max:    vec3(box.Max),
			Center: vec3(box.Center()),
			Size:   vec3(box.Size()),
		}
	}
	if s.result != nil {
		st.Framing = &FramingJSON{
			MaxDim:   s.result.MaxDim,
			FOVRad:   s.result.FOVRad,
			Distance: s.result.Distance,
			Formula:  s.Framer.Formula.String(),
		}
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	if !s.started.IsZero() {
		t := s.started
		st.StartedAt = &t
	}
	if !s.finished.IsZero() {
		t := s.finished
		st.FinishedAt = &t
		st.DurationMS = float64(s.finished.Sub(s.started)) / float64(time.Millisecond)
	}
	return st
}

// SceneJSON is what the browser viewer draws.
type SceneJSON struct {
	ID       string       `json:"id"`
	Framed   bool         `json:"framed"`
	Camera   CameraJSON   `json:"camera"`
	Clouds   []CloudJSON  `json:"clouds"`
	Viewport ViewportJSON `json:"viewport"`
}

// CloudJSON is one point cloud with its material.
type CloudJSON struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Size   float64      `json:"size"`
	Points [][3]float64 `json:"points"`
}

// ViewportJSON is the configured viewport.
type ViewportJSON struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SceneData returns the scene and camera for the browser viewer.
func (s *Session) SceneData() SceneJSON {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := SceneJSON{
		ID:       s.ID,
		Framed:   s.state == Framed,
		Camera:   cameraJSON(s.camera),
		Clouds:   []CloudJSON{},
		Viewport: ViewportJSON{Width: s.Viewport.Width, Height: s.Viewport.Height},
	}
	for _, obj := range s.Scene.Objects() {
		pts := make([][3]float64, len(obj.Points))
		for i, p := range obj.Points {
			pts[i] = vec3(p)
		}
		out.Clouds = append(out.Clouds, CloudJSON{
			Name:   obj.Name,
			Color:  render.HexColor(obj.Material.Color),
			Size:   obj.Material.Size,
			Points: pts,
		})
	}
	return out
}

func cameraJSON(c *scene.Camera) CameraJSON {
	return CameraJSON{
		FOV:      c.FOV,
		Aspect:   c.Aspect,
		Near:     c.Near,
		Far:      c.Far,
		Position: vec3(c.Position),
		Target:   vec3(c.Target()),
	}
}

func vec3(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
