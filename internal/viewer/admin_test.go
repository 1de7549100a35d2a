package viewer

import (
	"net/http"
	"testing"

	"github.com/banshee-data/pointview/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAdminRoutes_Session(t *testing.T) {
	ws := framedServer(t)

	w := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(w, testutil.LoopbackRequest(http.MethodGet, "/debug/session"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	var st map[string]interface{}
	testutil.DecodeJSON(t, w, &st)
	assert.Equal(t, ws.session.ID, st["id"])
	assert.Equal(t, "framed", st["state"])
}

func TestAdminRoutes_Camera(t *testing.T) {
	ws := framedServer(t)

	w := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(w, testutil.LoopbackRequest(http.MethodGet, "/debug/camera"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Body.String(), "position")
	assert.Contains(t, w.Body.String(), "last render")
}

func TestAdminRoutes_Index(t *testing.T) {
	ws := framedServer(t)

	w := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(w, testutil.LoopbackRequest(http.MethodGet, "/debug/"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Body.String(), "session")
}

func TestAdminRoutes_RejectsRemote(t *testing.T) {
	ws := framedServer(t)

	req := testutil.NewTestRequest(http.MethodGet, "/debug/session")
	req.RemoteAddr = "203.0.113.7:4000"
	w := testutil.NewTestRecorder()
	ws.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
