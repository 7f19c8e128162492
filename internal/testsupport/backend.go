package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"prepcoach/internal/services/backend"
)

// Backend is a fake interview server rooted at /api/v1.
type Backend struct {
	t      testing.TB
	server *httptest.Server
	mux    *http.ServeMux

	mu       sync.Mutex
	requests []string
}

// NewBackend starts a fake server and registers cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{t: t, mux: http.NewServeMux()}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the API root.
func (b *Backend) URL() string {
	return b.server.URL + "/api/v1"
}

// Handle registers a handler for method and a ServeMux path relative to the
// API root, e.g. Handle("POST", "/voice-interviews/{id}/answer-audio", h).
func (b *Backend) Handle(method, path string, handler http.HandlerFunc) {
	b.mux.HandleFunc(method+" /api/v1"+path, handler)
}

// Requests lists "METHOD /path" for every request received so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Client returns a backend client wired to the fake with retries disabled.
func (b *Backend) Client(opts ...backend.Option) *backend.Client {
	base := []backend.Option{
		backend.WithRetryMaxAttempts(1),
		backend.WithSleeper(func(time.Duration) {}),
	}
	return backend.NewClient(backend.Config{BaseURL: b.URL()}, append(base, opts...)...)
}

// JSON writes v as a JSON response body with the given status.
func JSON(t testing.TB, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}
