package viewer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/pointview/internal/httputil"
	"github.com/banshee-data/pointview/internal/monitoring"
	"github.com/banshee-data/pointview/internal/render"
	"github.com/banshee-data/pointview/internal/security"
	"github.com/banshee-data/pointview/internal/timeutil"
	"github.com/banshee-data/pointview/internal/version"
)

//go:embed viewer.html
var viewerHTML embed.FS

var viewerTemplate = template.Must(template.ParseFS(viewerHTML, "viewer.html"))

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 1 * time.Second

// defaultChartMaxPoints keeps the chart page responsive on large sources.
const defaultChartMaxPoints = 20000

// WebServer serves the session's scene to browsers.
type WebServer struct {
	address        string
	session        *Session
	chartMaxPoints int
	server         *http.Server
	clock          timeutil.Clock
	created        time.Time
	logf           func(format string, v ...interface{})

	mu   sync.Mutex
	addr net.Addr
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address string
	Session *Session
	// ChartMaxPoints caps the points drawn on /chart; 0 uses the default.
	ChartMaxPoints int
	// Clock defaults to the real clock.
	Clock timeutil.Clock
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:        cfg.Address,
		session:        cfg.Session,
		chartMaxPoints: cfg.ChartMaxPoints,
		clock:          cfg.Clock,
		logf:           monitoring.Prefixed("http"),
	}
	if ws.clock == nil {
		ws.clock = timeutil.RealClock{}
	}
	ws.created = ws.clock.Now()
	if ws.chartMaxPoints <= 0 {
		ws.chartMaxPoints = defaultChartMaxPoints
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws
}

// Handler returns the server's routes.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Addr returns the bound listen address once Start is serving.
func (ws *WebServer) Addr() net.Addr {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.addr
}

// Start serves until ctx is cancelled, then shuts down. It returns an error
// only if the listener could not be opened or serving failed.
func (ws *WebServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ws.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	ws.mu.Lock()
	ws.addr = ln.Addr()
	ws.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		ws.logf("serving on http://%s", ln.Addr())
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	ws.logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		ws.logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			ws.logf("HTTP server force close error: %v", err)
		}
	}

	ws.logf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", getOnly(ws.handleIndex))
	mux.HandleFunc("/health", getOnly(ws.handleHealth))
	mux.HandleFunc("/api/scene", getOnly(ws.handleScene))
	mux.HandleFunc("/api/status", getOnly(ws.handleStatus))
	mux.HandleFunc("/snapshot.png", getOnly(ws.handleSnapshot))
	mux.HandleFunc("/chart", getOnly(ws.handleChart))

	ws.AttachAdminRoutes(mux)
	return mux
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httputil.MethodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}

	data := struct {
		Title     string
		SessionID string
	}{
		Title:     "pointview",
		SessionID: ws.session.ID,
	}

	var buf bytes.Buffer
	if err := viewerTemplate.Execute(&buf, data); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render page: %v", err))
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "pointview",
		"version":   version.Version,
		"uptime":    ws.clock.Since(ws.created).Round(time.Second).String(),
		"timestamp": ws.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (ws *WebServer) handleScene(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, ws.session.SceneData())
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, ws.session.Snapshot())
}

func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, ok := ws.session.Renderer.Latest()
	if !ok {
		httputil.NotFound(w, "no frame rendered yet")
		return
	}
	name := security.SanitizeFilename(path.Base(ws.session.Snapshot().Source))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name+".png"))
	w.Header().Set("Last-Modified", f.RenderedAt.UTC().Format(http.TimeFormat))
	httputil.WriteBody(w, "image/png", f.PNG)
}

// handleChart renders the scene as an interactive go-echarts 3D scatter.
// Query params:
//   - max_points (optional) caps points per cloud, 100..500000
func (ws *WebServer) handleChart(w http.ResponseWriter, r *http.Request) {
	maxPoints := ws.chartMaxPoints
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v >= 100 && v <= 500000 {
			maxPoints = v
		}
	}

	st := ws.session.Snapshot()
	page, err := render.ChartPage(ws.session.Scene, ws.session.Camera(), render.ChartOptions{
		Title:     "pointview",
		Subtitle:  fmt.Sprintf("session=%s state=%s points=%d", st.ID[:8], st.State, st.PointCount),
		MaxPoints: maxPoints,
	})
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", page)
}
