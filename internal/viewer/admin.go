package viewer

import (
	"fmt"
	"net/http"

	"github.com/banshee-data/pointview/internal/httputil"
	"github.com/banshee-data/pointview/internal/version"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts the /debug/ pages on mux. tsweb restricts them
// to loopback and tailnet callers.
func (ws *WebServer) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("session", "Viewer session state (JSON)", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, ws.session.Snapshot())
	})

	debug.HandleFunc("camera", "Framed camera and last render", func(w http.ResponseWriter, r *http.Request) {
		cam := ws.session.Camera()
		right, up, forward := cam.Basis()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%s\n\n", version.String())
		fmt.Fprintf(w, "fov      %.4g deg (aspect %.4g, near %.4g, far %.4g)\n", cam.FOV, cam.Aspect, cam.Near, cam.Far)
		fmt.Fprintf(w, "position %v\n", cam.Position)
		fmt.Fprintf(w, "target   %v\n", cam.Target())
		fmt.Fprintf(w, "right    %v\nup       %v\nforward  %v\n", right, up, forward)
		if f, ok := ws.session.Renderer.Latest(); ok {
			fmt.Fprintf(w, "\nlast render %s: %dx%d, %d visible, %d culled, %d bytes\n",
				f.RenderedAt.Format("2006-01-02 15:04:05"), f.Width, f.Height, f.Visible, f.Culled, len(f.PNG))
		} else {
			fmt.Fprintln(w, "\nno render yet")
		}
	})

	debug.HandleSilentFunc("scene-json", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, ws.session.SceneData())
	})
}
