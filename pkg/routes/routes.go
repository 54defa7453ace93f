// Package routes declares HTTP endpoints as data so each domain handler can
// describe its surface and the API module can register it on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group holds routes that share a path prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Patterns returns the ServeMux pattern of every route in the group.
func (g Group) Patterns() []string {
	out := make([]string, 0, len(g.Routes))
	for _, r := range g.Routes {
		out = append(out, r.Method+" "+g.Prefix+r.Pattern)
	}
	return out
}

// Register adds the routes of every group to mux and returns the registered patterns.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, g := range groups {
		for i, p := range g.Patterns() {
			mux.HandleFunc(p, g.Routes[i].Handler)
			patterns = append(patterns, p)
		}
	}
	return patterns
}
