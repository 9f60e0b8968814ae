package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asad-as1/EduAccess/internal/auth"
)

// fullChain assembles the middleware stack the way the server binary does:
// CORS outermost, then bearer authentication with the window-only skipper.
func fullChain(handler *Handler, origin string) http.Handler {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	skipper := func(r *http.Request) bool {
		return r.URL.Path != "/activity/window"
	}
	middleware := auth.NewMiddleware(testAuthCfg, skipper)
	return CORS(origin)(middleware.Wrap(mux))
}

func TestPreflightBypassesAuthentication(t *testing.T) {
	handler, _ := newTestHandler()
	chain := fullChain(handler, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodOptions, "/activity/window", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allow-origin header got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
		t.Fatalf("expected allow-headers to include Authorization got %q", got)
	}
}

func TestWindowThroughFullChain(t *testing.T) {
	handler, repo := newTestHandler()
	chain := fullChain(handler, "http://localhost:5173")

	if err := repo.MergePageVisit(t.Context(), "u1", "home", time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed merge failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/activity/window", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "u1"))

	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestWindowWithoutBearerStillRejected(t *testing.T) {
	handler, _ := newTestHandler()
	chain := fullChain(handler, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodGet, "/activity/window", nil)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}
