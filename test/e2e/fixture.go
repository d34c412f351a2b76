package e2e

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// fixtureServer is a deterministic stand-in for the search service.
// It records the query string of every /search request.
type fixtureServer struct {
	*httptest.Server

	mu      sync.Mutex
	queries []string
}

func newFixtureServer() *fixtureServer {
	f := &fixtureServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *fixtureServer) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/search":
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		f.mu.Unlock()

		if strings.Contains(r.URL.Query().Get("q"), "quill") {
			w.Write([]byte(`{"items":[{"id":2,"name":"Quill Notes","pricing_model":"free"}],"total":1}`))
			return
		}
		w.Write([]byte(`{"items":[
			{"id":1,"name":"Fixture Entry One","pricing_model":"paid","description":"A deterministic entry for UI tests."},
			{"id":2,"name":"Quill Notes","pricing_model":"free"}
		],"total":2}`))
	case "/categories":
		w.Write([]byte(`[{"id":3,"name":"Writing"},{"id":4,"name":"Audio"}]`))
	default:
		http.NotFound(w, r)
	}
}

// Queries returns the /search query strings seen so far.
func (f *fixtureServer) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
