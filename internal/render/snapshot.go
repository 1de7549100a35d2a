// Package render draws a framed scene: a PNG snapshot projected through the
// camera, and an interactive go-echarts page of the raw points.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/banshee-data/pointview/internal/fsutil"
	"github.com/banshee-data/pointview/internal/monitoring"
	"github.com/banshee-data/pointview/internal/scene"
	"github.com/banshee-data/pointview/internal/timeutil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoFrame is returned by Save before the first render.
var ErrNoFrame = errors.New("render: nothing rendered yet")

// pixelsPerInch matches the vgimg default resolution so that a viewport
// of W×H pixels produces a W×H image.
const pixelsPerInch = 96

// minGlyphRadius keeps far points visible.
const minGlyphRadius = 0.5 * vg.Millimeter

// Frame is one rendered image.
type Frame struct {
	PNG        []byte
	RenderedAt time.Time
	Width      int
	Height     int
	Visible    int // points inside the frustum
	Culled     int // points outside it
}

// SnapshotRenderer draws the scene as the camera sees it into a PNG. Each
// Render replaces the previous frame.
type SnapshotRenderer struct {
	Viewport   scene.Viewport
	Background color.Color

	// Clock stamps each frame.
	Clock timeutil.Clock

	mu      sync.Mutex
	latest  *Frame
	renders int
	logf    func(format string, v ...interface{})
}

// NewSnapshotRenderer creates a renderer for the given viewport with a
// black background.
func NewSnapshotRenderer(vp scene.Viewport) *SnapshotRenderer {
	return &SnapshotRenderer{
		Viewport:   vp,
		Background: color.Black,
		Clock:      timeutil.RealClock{},
		logf:       monitoring.Prefixed("render"),
	}
}

// Render projects every point of s through cam and stores the image as the
// latest frame.
func (r *SnapshotRenderer) Render(ctx context.Context, s *scene.Scene, cam *scene.Camera) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || cam == nil {
		return errors.New("render: nil scene or camera")
	}

	width, height := r.Viewport.Width, r.Viewport.Height
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render: invalid viewport %dx%d", width, height)
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = r.Background

	wPt := vg.Length(width) * vg.Inch / pixelsPerInch
	hPt := vg.Length(height) * vg.Inch / pixelsPerInch

	visible, culled := 0, 0
	for _, obj := range s.Objects() {
		pts := make(plotter.XYs, 0, len(obj.Points))
		radii := make([]vg.Length, 0, len(obj.Points))
		for _, pt := range obj.Points {
			ndc, ok := cam.Project(pt)
			if !ok {
				culled++
				continue
			}
			visible++
			pts = append(pts, plotter.XY{X: ndc.X, Y: ndc.Y})
			radii = append(radii, glyphRadius(obj.Material.Size, ndc.Z, cam, hPt))
		}
		if len(pts) == 0 {
			continue
		}

		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("render: %s: %w", obj.Name, err)
		}
		c := obj.Material.Color
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: c, Radius: radii[i], Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
	}

	// NDC space, fixed after Add so data ranges cannot widen it.
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1

	wt, err := p.WriterTo(wPt, hPt, "png")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}

	f := &Frame{
		PNG:        buf.Bytes(),
		RenderedAt: r.Clock.Now(),
		Width:      width,
		Height:     height,
		Visible:    visible,
		Culled:     culled,
	}

	r.mu.Lock()
	r.latest = f
	r.renders++
	n := r.renders
	r.mu.Unlock()

	r.logf("frame %d: %d points visible, %d culled, %d bytes", n, visible, culled, len(f.PNG))
	return nil
}

// glyphRadius scales a point's world size by its depth into image units.
func glyphRadius(size, depth float64, cam *scene.Camera, imageHeight vg.Length) vg.Length {
	if depth <= 0 {
		return minGlyphRadius
	}
	f := 1 / math.Tan(cam.FOVRadians()/2)
	rad := vg.Length(size/2*f/depth) * imageHeight / 2
	if rad < minGlyphRadius {
		return minGlyphRadius
	}
	return rad
}

// Latest returns a copy of the most recent frame.
func (r *SnapshotRenderer) Latest() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return Frame{}, false
	}
	f := *r.latest
	f.PNG = append([]byte(nil), r.latest.PNG...)
	return f, true
}

// Renders returns how many frames have been drawn.
func (r *SnapshotRenderer) Renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renders
}

// Save writes the latest frame as a PNG file, creating parent directories.
func (r *SnapshotRenderer) Save(fsys fsutil.FileSystem, path string) error {
	f, ok := r.Latest()
	if !ok {
		return ErrNoFrame
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := fsys.WriteFile(path, f.PNG, 0644); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
