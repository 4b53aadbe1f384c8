package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":        {Data: []byte("<html>challenge</html>")},
		"static/js/game.js": {Data: []byte("let gameState = {};")},
	}
}

func TestSPAHandler(t *testing.T) {
	h := spaHandler(testFS())

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
		wantCache  bool
	}{
		{"root", "/", http.StatusOK, "challenge", false},
		{"static file", "/static/js/game.js", http.StatusOK, "gameState", true},
		{"client route falls back", "/reflection", http.StatusOK, "challenge", false},
		{"unknown api path", "/api/nope", http.StatusNotFound, "", false},
		{"unknown ws path", "/ws/nope", http.StatusNotFound, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("expected body to contain %q, got %q", tt.wantBody, rec.Body.String())
			}
			if got := rec.Header().Get("Cache-Control") != ""; got != tt.wantCache {
				t.Errorf("cache header present = %v, want %v", got, tt.wantCache)
			}
		})
	}
}

func TestEmbeddedControllerIsPresent(t *testing.T) {
	rec := httptest.NewRecorder()
	SPAHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/game.js", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "gameState") {
		t.Errorf("embedded game.js missing: %d", rec.Code)
	}
}
