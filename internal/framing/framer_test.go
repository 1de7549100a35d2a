package framing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/pointview/internal/monitoring"
	"github.com/banshee-data/pointview/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-9

type countingRenderer struct {
	calls int
	err   error
	seen  r3.Vec
}

func (c *countingRenderer) Render(ctx context.Context, s *scene.Scene, cam *scene.Camera) error {
	c.calls++
	c.seen = cam.Position
	return c.err
}

func quiet(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func sceneOf(points ...r3.Vec) *scene.Scene {
	s := scene.New()
	s.Add(scene.NewPointCloud("points", points, scene.DefaultMaterial()))
	return s
}

func TestDistance(t *testing.T) {
	fov := 75 * math.Pi / 180

	// tan(150°) = -1/sqrt(3); the abs keeps the distance positive
	assert.InDelta(t, 1/math.Sqrt(3), Distance(2, fov, FormulaObserved), eps)
	assert.InDelta(t, 1/math.Tan(fov/2), Distance(2, fov, FormulaStandard), eps)
	assert.Equal(t, 0.0, Distance(0, fov, FormulaObserved))

	// 90° standard framing: half-extent over tan(45°)
	assert.InDelta(t, 5, Distance(10, math.Pi/2, FormulaStandard), eps)
}

func TestParseFormula(t *testing.T) {
	assert.Equal(t, FormulaStandard, ParseFormula("standard"))
	assert.Equal(t, FormulaObserved, ParseFormula("observed"))
	assert.Equal(t, FormulaObserved, ParseFormula(""))
	assert.Equal(t, "observed", FormulaObserved.String())
	assert.Equal(t, "standard", FormulaStandard.String())
	assert.Equal(t, "unknown", Formula(9).String())
}

func TestFrame_Cube(t *testing.T) {
	quiet(t)
	r := &countingRenderer{}
	f := New(r)
	cam := scene.NewCamera(75, 16.0/9.0, 0.1, 1000)
	cam.Position = r3.Vec{Z: 5}

	s := sceneOf(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 1, Y: 0.5, Z: 1.5})
	res, err := f.Frame(context.Background(), s, cam)
	require.NoError(t, err)

	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, res.Center)
	assert.Equal(t, 2.0, res.MaxDim)
	assert.InDelta(t, 75*math.Pi/180, res.FOVRad, eps)
	assert.InDelta(t, 1/math.Sqrt(3), res.Distance, eps)

	assert.InDelta(t, 1, cam.Position.X, eps)
	assert.InDelta(t, 1, cam.Position.Y, eps)
	assert.InDelta(t, 1+1/math.Sqrt(3), cam.Position.Z, eps)
	assert.Equal(t, r3.Vec{X: 51, Y: 1, Z: 1}, cam.Target())
	assert.Equal(t, res.Target, cam.Target())

	assert.Equal(t, 1, r.calls)
	assert.Equal(t, cam.Position, r.seen, "render sees the framed camera")
	assert.Equal(t, Framed, f.State())
}

func TestFrame_TwoPointExample(t *testing.T) {
	quiet(t)
	f := New(nil)
	cam := scene.NewCamera(75, 1, 0.1, 1000)

	res, err := f.Frame(context.Background(), sceneOf(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 4, Y: 5, Z: 6}), cam)
	require.NoError(t, err)

	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, res.Box.Min)
	assert.Equal(t, r3.Vec{X: 4, Y: 5, Z: 6}, res.Box.Max)
	assert.Equal(t, r3.Vec{X: 2.5, Y: 3.5, Z: 4.5}, res.Center)
	assert.Equal(t, r3.Vec{X: 3, Y: 3, Z: 3}, res.Size)
	assert.InDelta(t, 1.5/math.Sqrt(3), res.Distance, eps)
	assert.InDelta(t, 4.5+1.5/math.Sqrt(3), cam.Position.Z, eps)
}

func TestFrame_StandardFormulaAndOffset(t *testing.T) {
	quiet(t)
	f := New(nil)
	f.Formula = FormulaStandard
	f.LookAtOffset = r3.Vec{}
	cam := scene.NewCamera(90, 1, 0.1, 1000)

	res, err := f.Frame(context.Background(), sceneOf(r3.Vec{X: -5, Y: -5, Z: -5}, r3.Vec{X: 5, Y: 5, Z: 5}), cam)
	require.NoError(t, err)

	assert.InDelta(t, 5, res.Distance, eps)
	assert.Equal(t, r3.Vec{}, cam.Target())

	// the centre projects to the middle of the image
	ndc, ok := cam.Project(res.Center)
	require.True(t, ok)
	assert.InDelta(t, 0, ndc.X, eps)
	assert.InDelta(t, 0, ndc.Y, eps)
}

func TestFrame_EmptySceneSkipsFraming(t *testing.T) {
	quiet(t)
	r := &countingRenderer{}
	f := New(r)
	cam := scene.NewCamera(75, 1, 0.1, 1000)
	cam.Position = r3.Vec{Z: 5}

	_, err := f.Frame(context.Background(), scene.New(), cam)
	assert.ErrorIs(t, err, ErrNothingToFrame)
	assert.Equal(t, r3.Vec{Z: 5}, cam.Position)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, Unframed, f.State())
}

func TestFrame_OnlyOnce(t *testing.T) {
	quiet(t)
	r := &countingRenderer{}
	f := New(r)
	cam := scene.NewCamera(75, 1, 0.1, 1000)
	s := sceneOf(r3.Vec{}, r3.Vec{X: 1})

	_, err := f.Frame(context.Background(), s, cam)
	require.NoError(t, err)
	_, err = f.Frame(context.Background(), s, cam)
	assert.ErrorIs(t, err, ErrAlreadyFramed)
	assert.Equal(t, 1, r.calls)
}

func TestFrame_RenderErrorStaysUnframed(t *testing.T) {
	quiet(t)
	boom := errors.New("boom")
	r := &countingRenderer{err: boom}
	f := New(r)
	cam := scene.NewCamera(75, 1, 0.1, 1000)

	_, err := f.Frame(context.Background(), sceneOf(r3.Vec{}, r3.Vec{X: 1}), cam)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Unframed, f.State())
	assert.Equal(t, 1, r.calls)
}

func TestRendererFunc(t *testing.T) {
	called := false
	var r Renderer = RendererFunc(func(ctx context.Context, s *scene.Scene, cam *scene.Camera) error {
		called = true
		return nil
	})
	require.NoError(t, r.Render(context.Background(), scene.New(), scene.NewCamera(75, 1, 0.1, 10)))
	assert.True(t, called)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unframed", Unframed.String())
	assert.Equal(t, "framed", Framed.String())
}
