package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// RoutesDeclarationFile is the default filename for route declarations
const RoutesDeclarationFile = "ROUTES.toml"

// RouteDecl represents a declared route in ROUTES.toml
type RouteDecl struct {
	// Method is the HTTP method matched exactly (GET, POST, ...)
	Method string `json:"method" toml:"method" mapstructure:"method"`

	// Path is the request path matched exactly; must start with /
	Path string `json:"path" toml:"path" mapstructure:"path"`

	// Body is the response body written for a match
	Body string `json:"body" toml:"body" mapstructure:"body"`

	// Status is the response status code (default 200)
	Status int `json:"status,omitempty" toml:"status,omitempty" mapstructure:"status"`

	// ContentType overrides the default text/plain content type
	ContentType string `json:"contentType,omitempty" toml:"content_type,omitempty" mapstructure:"contentType"`
}

// RoutesFile represents the root structure of ROUTES.toml
type RoutesFile struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Routes is the list of declared routes
	Routes []RouteDecl `toml:"route"`
}

// standardMethods are the HTTP verbs a route declaration may use.
var standardMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// ParseRoutesFile parses a ROUTES.toml file from the given path
func ParseRoutesFile(filePath string) (*RoutesFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROUTES.toml: %w", err)
	}

	var routesFile RoutesFile
	if err := toml.Unmarshal(data, &routesFile); err != nil {
		return nil, fmt.Errorf("failed to parse ROUTES.toml: %w", err)
	}

	if routesFile.Version < 1 {
		routesFile.Version = 1
	}

	return &routesFile, nil
}

// LoadDeclaredRoutes loads route declarations from ROUTES.toml if present.
// A missing file is not an error; the caller falls back to the built-in
// greeting route.
func LoadDeclaredRoutes(declarationFile string) ([]RouteDecl, error) {
	if declarationFile == "" {
		declarationFile = RoutesDeclarationFile
	}

	if _, err := os.Stat(declarationFile); os.IsNotExist(err) {
		return nil, nil
	}

	routesFile, err := ParseRoutesFile(declarationFile)
	if err != nil {
		return nil, err
	}

	return routesFile.Routes, nil
}

// ValidateRoutes checks every declaration and rejects duplicate
// (method, path) pairs. Duplicates are a startup error rather than
// first-match-wins.
func ValidateRoutes(routes []RouteDecl) error {
	seen := make(map[string]bool, len(routes))

	for i, r := range routes {
		method := strings.ToUpper(r.Method)
		if !standardMethods[method] {
			return &ConfigError{
				Field:   fmt.Sprintf("routes[%d].method", i),
				Message: fmt.Sprintf("%q is not a standard HTTP method", r.Method),
			}
		}
		if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
			return &ConfigError{
				Field:   fmt.Sprintf("routes[%d].path", i),
				Message: fmt.Sprintf("path %q must be non-empty and start with /", r.Path),
			}
		}
		if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
			return &ConfigError{
				Field:   fmt.Sprintf("routes[%d].status", i),
				Message: fmt.Sprintf("status %d is not a valid HTTP status code", r.Status),
			}
		}

		key := method + " " + r.Path
		if seen[key] {
			return &ConfigError{
				Field:   fmt.Sprintf("routes[%d]", i),
				Message: fmt.Sprintf("duplicate route %s", key),
			}
		}
		seen[key] = true
	}

	return nil
}
