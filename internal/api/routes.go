package api

import (
	"net/http"
	"sort"
	"strings"

	"greetd/internal/config"
)

// HealthPath is reserved for the health probe and may not be claimed by a
// route declaration.
const HealthPath = "/healthz"

// PlainTextContentType is the default content type for route responses.
const PlainTextContentType = "text/plain; charset=utf-8"

// Route is one (method, path) pair and the response it produces.
type Route struct {
	Method      string
	Path        string
	Status      int
	ContentType string
	Body        string
}

// RouteTable is the immutable set of routes matched per request. Lookup
// is exact on both method and path; a method mismatch on an existing path
// is a route miss (404), not 405.
type RouteTable struct {
	routes map[string]Route
}

// BuildRouteTable assembles the table from configuration. The built-in
// greeting route (GET /) is installed unless a declaration claims that
// pair. Duplicate (method, path) pairs and reserved paths are rejected.
func BuildRouteTable(cfg *config.Config) (*RouteTable, error) {
	decls := cfg.Routes

	if err := config.ValidateRoutes(decls); err != nil {
		return nil, err
	}

	table := &RouteTable{routes: make(map[string]Route, len(decls)+1)}

	for _, d := range decls {
		if d.Path == HealthPath {
			return nil, &config.ConfigError{
				Field:   "routes",
				Message: HealthPath + " is reserved for the health probe",
			}
		}

		route := Route{
			Method:      strings.ToUpper(d.Method),
			Path:        d.Path,
			Status:      d.Status,
			ContentType: d.ContentType,
			Body:        d.Body,
		}
		if route.Status == 0 {
			route.Status = http.StatusOK
		}
		if route.ContentType == "" {
			route.ContentType = PlainTextContentType
		}
		table.routes[route.key()] = route
	}

	greeting := Route{
		Method:      http.MethodGet,
		Path:        "/",
		Status:      http.StatusOK,
		ContentType: PlainTextContentType,
		Body:        cfg.Greeting,
	}
	if _, claimed := table.routes[greeting.key()]; !claimed {
		table.routes[greeting.key()] = greeting
	}

	return table, nil
}

func (r Route) key() string {
	return r.Method + " " + r.Path
}

// Match returns the route for an exact (method, path) pair.
func (t *RouteTable) Match(method, path string) (Route, bool) {
	route, ok := t.routes[strings.ToUpper(method)+" "+path]
	return route, ok
}

// Len returns the number of routes in the table.
func (t *RouteTable) Len() int {
	return len(t.routes)
}

// All returns the routes sorted by (path, method) for display.
func (t *RouteTable) All() []Route {
	routes := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// handleRoute matches the request against the route table. The response
// is constructed fresh per request; nothing is shared between requests.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	route, ok := s.routes.Match(r.Method, r.URL.Path)
	if !ok {
		NotFound(w)
		return
	}

	WriteText(w, route.Status, route.ContentType, route.Body)
}
