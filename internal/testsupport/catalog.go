package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"reelcache/internal/tmdb"
)

// CatalogServer is a scripted fake of the TMDB API. Responses are keyed by
// path, optionally refined by the query parameter ("search/movie?query=Heat").
// Unscripted paths answer 404 like TMDB does for unknown ids.
type CatalogServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]route
	requests []string
}

type route struct {
	status int
	body   any
}

// NewCatalogServer starts a fake catalog and registers cleanup.
func NewCatalogServer(t testing.TB) *CatalogServer {
	t.Helper()

	cs := &CatalogServer{routes: map[string]route{}}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.serve))
	t.Cleanup(cs.Close)
	return cs
}

// CatalogClient returns a catalog client for the server without rate
// limiting or retries.
func (cs *CatalogServer) CatalogClient(t testing.TB) *tmdb.Client {
	t.Helper()

	client, err := tmdb.New("test", cs.URL, "en",
		tmdb.WithHTTPClient(cs.Server.Client()),
		tmdb.WithRateLimit(0, 0),
		tmdb.WithRetry(1, 0),
	)
	if err != nil {
		t.Fatalf("tmdb.New: %v", err)
	}
	return client
}

// Handle scripts a JSON response for path.
func (cs *CatalogServer) Handle(path string, body any) {
	cs.set(path, route{status: http.StatusOK, body: body})
}

// Fail scripts an error status for path.
func (cs *CatalogServer) Fail(path string, status int) {
	cs.set(path, route{status: status, body: map[string]any{"status_message": http.StatusText(status)}})
}

func (cs *CatalogServer) set(path string, r route) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.routes[strings.TrimPrefix(path, "/")] = r
}

// AddTitle scripts the details, credits, and empty image sets of a title.
// Translations, alternative titles, and release dates stay unscripted.
func (cs *CatalogServer) AddTitle(kind string, details tmdb.Details, credits tmdb.Credits) {
	base := fmt.Sprintf("%s/%d", kind, details.ID)
	cs.Handle(base, details)
	cs.Handle(base+"/credits", credits)
	cs.Handle(base+"/images", tmdb.Images{})
}

// Requests returns the request paths seen so far, each with its query
// parameter when one was sent.
func (cs *CatalogServer) Requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.requests...)
}

// Count returns how many requests started with prefix.
func (cs *CatalogServer) Count(prefix string) int {
	n := 0
	for _, r := range cs.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// Reset clears the request log.
func (cs *CatalogServer) Reset() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.requests = nil
}

func (cs *CatalogServer) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	key := path
	if q := r.URL.Query().Get("query"); q != "" {
		key = path + "?query=" + q
	}

	cs.mu.Lock()
	cs.requests = append(cs.requests, key)
	rt, ok := cs.routes[key]
	if !ok {
		rt, ok = cs.routes[path]
	}
	cs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"status_message": "The resource you requested could not be found."})
		return
	}
	w.WriteHeader(rt.status)
	_ = json.NewEncoder(w).Encode(rt.body)
}
