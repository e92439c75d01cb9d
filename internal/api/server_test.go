package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"greetd/internal/config"
	"greetd/internal/logging"
)

// testLogger returns a silent logger for tests
func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := NewServer(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestGreetingRoute(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Greeting = "Hello World! I am new here 🚀"
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != cfg.Greeting {
		t.Errorf("body = %q, want %q", got, cfg.Greeting)
	}
	if ct := rec.Header().Get("Content-Type"); ct != PlainTextContentType {
		t.Errorf("Content-Type = %q, want %q", ct, PlainTextContentType)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry an X-Request-ID header")
	}
}

func TestGreetingIgnoresQueryAndHeaders(t *testing.T) {
	cfg := config.DefaultConfig()
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/?verbose=1&lang=fr", nil)
	req.Header.Set("X-Custom", "value")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != config.DefaultGreeting {
		t.Errorf("body = %q, want %q", got, config.DefaultGreeting)
	}
}

func TestUnmatchedRoutesReturn404(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/"},
		{"PUT", "/"},
		{"DELETE", "/"},
		{"GET", "/nonexistent"},
		{"POST", "/nonexistent"},
		{"GET", "/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Not Found") {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), "Not Found")
			}
		})
	}
}

func TestRepeatedRequestsAreIdentical(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	var first string
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
		if i == 0 {
			first = rec.Body.String()
			continue
		}
		if got := rec.Body.String(); got != first {
			t.Errorf("request %d: body = %q, differs from first %q", i, got, first)
		}
	}
}

func TestDeclaredRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Routes = []config.RouteDecl{
		{Method: "GET", Path: "/ping", Body: "pong"},
		{Method: "POST", Path: "/submit", Body: "accepted", Status: 202},
	}
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/ping", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Errorf("GET /ping = %d %q, want 200 pong", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("POST", "/submit", strings.NewReader("payload"))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != 202 || rec.Body.String() != "accepted" {
		t.Errorf("POST /submit = %d %q, want 202 accepted", rec.Code, rec.Body.String())
	}

	// The built-in greeting route stays alongside declared routes
	req = httptest.NewRequest("GET", "/", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET / = %d, want 200", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	req := httptest.NewRequest("GET", HealthPath, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var health HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if health.Version == "" {
		t.Error("version should be set")
	}
}

func TestGzipResponse(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Greeting = strings.Repeat("Hello World! ", 50)
	s := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if enc := rec.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", enc)
	}

	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gr.Close()
	body, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	if string(body) != cfg.Greeting {
		t.Errorf("decompressed body does not round-trip to the greeting")
	}
}

func TestSmallBodyNotCompressed(t *testing.T) {
	s := newTestServer(t, config.DefaultConfig())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if enc := rec.Header().Get("Content-Encoding"); enc != "" {
		t.Errorf("Content-Encoding = %q, want none for a small body", enc)
	}
	if got := rec.Body.String(); got != config.DefaultGreeting {
		t.Errorf("body = %q, want %q", got, config.DefaultGreeting)
	}
}

func TestListenFailsOnOccupiedPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = port
	s := newTestServer(t, cfg)

	if err := s.Listen(); err == nil {
		s.listener.Close()
		t.Fatal("second bind on an occupied port should fail, not hang")
	}
}

func TestServeAndGracefulShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	// Port 0 asks the OS for a free port; NewServer does not re-run config
	// validation, which is what serve does before reaching this point.
	cfg.Server.Port = 0

	s, err := NewServer(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	if err := s.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve()
	}()

	url := fmt.Sprintf("http://%s/", s.Addr())
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(body) != config.DefaultGreeting {
		t.Errorf("body = %q, want %q", string(body), config.DefaultGreeting)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Errorf("Serve returned %v after shutdown, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after shutdown")
	}
}
