package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp["error"]
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "test error")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}
	if msg := decodeError(t, rec); msg != "test error" {
		t.Errorf("error = %s, want 'test error'", msg)
	}
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"points": 2})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["points"] != 2 {
		t.Errorf("points = %d, want 2", resp["points"])
	}
}

func TestWriteBody(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteBody(rec, "image/png", []byte{0x89, 'P', 'N', 'G'})

	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %s", ct)
	}
	if rec.Body.Len() != 4 {
		t.Errorf("body length = %d, want 4", rec.Body.Len())
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no frame") }, http.StatusNotFound, "no frame"},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "render failed") }, http.StatusInternalServerError, "render failed"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		tt.write(rec)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
		if msg := decodeError(t, rec); msg != tt.msg {
			t.Errorf("%s: error = %q, want %q", tt.name, msg, tt.msg)
		}
	}
}
