package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"greetd/internal/config"
	"greetd/internal/logging"
)

// Server represents the HTTP responder
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	addr     string
	logger   *logging.Logger
	routes   *RouteTable
	listener net.Listener
}

// NewServer creates a new HTTP server instance. The route table is built
// once here and is immutable afterwards; duplicate or invalid declarations
// fail construction.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	routes, err := BuildRouteTable(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:   cfg.Addr(),
		logger: logger,
		routes: routes,
		router: http.NewServeMux(),
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// registerRoutes registers the health probe and the static route table
func (s *Server) registerRoutes() {
	s.router.HandleFunc(HealthPath, s.handleHealth)
	s.router.HandleFunc("/", s.handleRoute)
}

// Listen binds the TCP listener. Bind failures (port in use, permission)
// surface here immediately so the caller can exit non-zero instead of
// serving; there is no retry.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	s.listener = ln

	s.logger.Info("Listening", map[string]interface{}{
		"addr": ln.Addr().String(),
	})
	return nil
}

// Addr returns the bound listener address. Useful when the configured
// port is 0 and the OS picked one.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Serve accepts connections on the bound listener until Shutdown. Listen
// must have been called first.
func (s *Server) Serve() error {
	if s.listener == nil {
		return fmt.Errorf("serve called before listen")
	}

	if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, draining in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully", nil)
	return nil
}

// Routes returns the effective route table sorted for display.
func (s *Server) Routes() []Route {
	return s.routes.All()
}

// RouteCount returns the number of routes in the table.
func (s *Server) RouteCount() int {
	return s.routes.Len()
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = GzipMiddleware()(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
