// Command snapshot loads a point source, frames the camera on it and writes
// the rendered PNG without starting a server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/pointview/internal/config"
	"github.com/banshee-data/pointview/internal/fsutil"
	"github.com/banshee-data/pointview/internal/pointcloud"
	"github.com/banshee-data/pointview/internal/security"
	"github.com/banshee-data/pointview/internal/viewer"
)

func main() {
	configPath := flag.String("config", "", "viewer config JSON (optional)")
	source := flag.String("source", "", "CSV source; defaults to the config's source")
	output := flag.String("o", "snapshot.png", "output PNG path")
	width := flag.Int("width", 0, "image width in pixels (overrides config)")
	height := flag.Int("height", 0, "image height in pixels (overrides config)")
	formula := flag.String("formula", "", "framing formula: observed or standard (overrides config)")
	flag.Parse()

	cfg := config.EmptyViewerConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadViewerConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *source != "" {
		cfg.Source = source
	}
	if *width > 0 {
		cfg.ViewportWidth = width
	}
	if *height > 0 {
		cfg.ViewportHeight = height
	}
	if *formula != "" {
		cfg.FramingFormula = formula
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid options: %v", err)
	}
	if err := security.ValidateOutputPath(*output); err != nil {
		log.Fatalf("invalid output path: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := pointcloud.NewLoader(nil, nil)
	loader.Timeout = cfg.GetFetchTimeout()
	loader.MaxBytes = cfg.GetMaxBytes()

	session := viewer.NewSession(loader, viewer.OptionsFromConfig(cfg))
	if err := session.Run(ctx, cfg.GetSource()); err != nil {
		log.Printf("failed: %v", err)
		os.Exit(1)
	}
	if session.State() != viewer.Framed {
		log.Printf("nothing was framed from %s", cfg.GetSource())
		os.Exit(1)
	}

	if err := session.Renderer.Save(fsutil.OSFileSystem{}, *output); err != nil {
		log.Fatalf("failed to write snapshot: %v", err)
	}

	st := session.Snapshot()
	log.Printf("✓ Created: %s (%d points, camera %v)", *output, st.PointCount, st.Camera.Position)
}
