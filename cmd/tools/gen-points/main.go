// Command gen-points writes a synthetic x,y,z CSV for demos and tests.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/pointview/internal/fsutil"
	"github.com/banshee-data/pointview/internal/pointcloud"
	"gonum.org/v1/gonum/spatial/r3"
)

func main() {
	output := flag.String("o", "output.csv", "output path")
	n := flag.Int("n", 5000, "number of points")
	shape := flag.String("shape", "sphere", "sphere, helix or cube")
	radius := flag.Float64("radius", 10, "sphere/helix radius or cube half-edge")
	jitter := flag.Float64("jitter", 0, "gaussian noise added to each coordinate")
	seed := flag.Int64("seed", 1, "random seed")
	cx := flag.Float64("cx", 0, "centre x")
	cy := flag.Float64("cy", 0, "centre y")
	cz := flag.Float64("cz", 0, "centre z")
	flag.Parse()

	gen := pointcloud.NewSyntheticGenerator(pointcloud.Shape(*shape), *seed)
	gen.Radius = *radius
	gen.Jitter = *jitter
	gen.Center = r3.Vec{X: *cx, Y: *cy, Z: *cz}

	points, err := gen.Generate(*n)
	if err != nil {
		log.Fatalf("failed to generate points: %v", err)
	}

	if err := writePoints(fsutil.OSFileSystem{}, *output, points); err != nil {
		log.Fatal(err)
	}
	log.Printf("✓ Created: %s (%d %s points)", *output, len(points), *shape)
}

// writePoints encodes points as CSV and writes them to path in fsys.
func writePoints(fsys fsutil.FileSystem, path string, points pointcloud.PointSet) error {
	var buf bytes.Buffer
	if err := pointcloud.WriteCSV(&buf, points); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
