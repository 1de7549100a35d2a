package pointcloud

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSyntheticGenerator_Sphere(t *testing.T) {
	g := NewSyntheticGenerator(ShapeSphere, 1)
	g.Center = r3.Vec{X: 100}
	ps, err := g.Generate(500)
	require.NoError(t, err)
	require.Len(t, ps, 500)

	for _, p := range ps {
		assert.InDelta(t, 10, r3.Norm(r3.Sub(p, g.Center)), 1e-9)
	}
}

func TestSyntheticGenerator_Helix(t *testing.T) {
	g := NewSyntheticGenerator(ShapeHelix, 1)
	ps, err := g.Generate(11)
	require.NoError(t, err)

	assert.InDelta(t, 10, ps[0].X, 1e-9)
	assert.InDelta(t, 0, ps[0].Y, 1e-9)
	assert.InDelta(t, g.Pitch*g.Turns, ps[10].Y, 1e-9)
	for _, p := range ps {
		assert.InDelta(t, 10, math.Hypot(p.X, p.Z), 1e-9)
	}
}

func TestSyntheticGenerator_Cube(t *testing.T) {
	g := NewSyntheticGenerator(ShapeCube, 7)
	ps, err := g.Generate(300)
	require.NoError(t, err)

	for _, p := range ps {
		onFace := math.Abs(math.Abs(p.X)-10) < 1e-9 ||
			math.Abs(math.Abs(p.Y)-10) < 1e-9 ||
			math.Abs(math.Abs(p.Z)-10) < 1e-9
		assert.True(t, onFace, "%v is not on a face", p)
	}
}

func TestSyntheticGenerator_Seeded(t *testing.T) {
	a, err := NewSyntheticGenerator(ShapeSphere, 42).Generate(50)
	require.NoError(t, err)
	b, err := NewSyntheticGenerator(ShapeSphere, 42).Generate(50)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different points (-a +b):\n%s", diff)
	}
}

func TestSyntheticGenerator_Errors(t *testing.T) {
	_, err := NewSyntheticGenerator("torus", 1).Generate(10)
	assert.Error(t, err)
	_, err = NewSyntheticGenerator(ShapeSphere, 1).Generate(-1)
	assert.Error(t, err)
}

func TestWriteCSV_RoundTripsThroughParse(t *testing.T) {
	g := NewSyntheticGenerator(ShapeCube, 3)
	g.Jitter = 0.5
	ps, err := g.Generate(100)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ps))

	got, stats := Parse(buf.String(), nil)
	// only the trailing empty line fails
	assert.Equal(t, 1, stats.ConversionFailures)
	assert.Equal(t, 1, stats.WrongFieldCount)
	if diff := cmp.Diff([]r3.Vec(ps), []r3.Vec(got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
