// Command pointview loads a CSV point cloud, frames a camera on it, renders
// it once and serves the result over HTTP until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/banshee-data/pointview/internal/config"
	"github.com/banshee-data/pointview/internal/fsutil"
	"github.com/banshee-data/pointview/internal/pointcloud"
	"github.com/banshee-data/pointview/internal/security"
	"github.com/banshee-data/pointview/internal/version"
	"github.com/banshee-data/pointview/internal/viewer"
)

var (
	configPath  = flag.String("config", "", "Path to a viewer config JSON file (built-in defaults when empty)")
	source      = flag.String("source", "", "CSV source: http(s)://, file:// or a path (overrides config)")
	listen      = flag.String("listen", "", "HTTP listen address (overrides config)")
	snapshot    = flag.String("snapshot", "", "Write the rendered PNG here after framing (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	fsys := fsutil.OSFileSystem{}
	cfg, err := loadConfig(fsys, *configPath, *source, *listen, *snapshot)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := runSession(ctx, cfg, fsys)

	ws := viewer.NewWebServer(viewer.WebServerConfig{
		Address: cfg.GetListen(),
		Session: session,
	})
	if err := ws.Start(ctx); err != nil {
		log.Fatalf("web server: %v", err)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(fsys fsutil.FileSystem, path, source, listen, snapshot string) (*config.ViewerConfig, error) {
	cfg := config.EmptyViewerConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadViewerConfigFS(fsys, path); err != nil {
			return nil, err
		}
	}
	if source != "" {
		cfg.Source = &source
	}
	if listen != "" {
		cfg.Listen = &listen
	}
	if snapshot != "" {
		cfg.SnapshotPath = &snapshot
	}
	return cfg, nil
}

// runSession runs one viewer session. Load and framing errors are logged;
// the returned session is always usable by the web server.
func runSession(ctx context.Context, cfg *config.ViewerConfig, fsys fsutil.FileSystem) *viewer.Session {
	loader := pointcloud.NewLoader(nil, fsys)
	loader.Timeout = cfg.GetFetchTimeout()
	loader.MaxBytes = cfg.GetMaxBytes()

	session := viewer.NewSession(loader, viewer.OptionsFromConfig(cfg))
	log.Printf("%s: session %s", version.String(), session.ID)

	if err := session.Run(ctx, cfg.GetSource()); err != nil {
		log.Printf("session %s: %v", session.ID, err)
		return session
	}

	if path := cfg.GetSnapshotPath(); path != "" {
		if err := security.ValidateOutputPath(path); err != nil {
			log.Printf("refusing to write snapshot: %v", err)
		} else if err := session.Renderer.Save(fsys, path); err != nil {
			log.Printf("failed to write snapshot: %v", err)
		} else {
			log.Printf("wrote snapshot %s", path)
		}
	}
	return session
}
