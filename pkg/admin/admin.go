// Package admin serves the operational HTTP endpoints of the proxy: the
// Prometheus metrics endpoint and the health probes. It listens on its own
// address so operator traffic never competes for client permits.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/cacheproxy/pkg/telemetry/health"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options configures the admin server.
type Options struct {
	// MetricsPath is where Metrics is mounted. Default: "/metrics".
	MetricsPath string

	// Metrics serves the metrics endpoint. Nil leaves it unmounted.
	Metrics http.Handler

	// Checker backs the health probes. Required.
	Checker *health.Checker

	// Version is reported on /version.
	Version health.VersionInfo
}

// Server is the admin HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	mu        sync.Mutex
	listener  net.Listener
	isRunning bool
}

// New builds the admin server and its routes.
func New(opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	if opts.Metrics != nil {
		mux.Handle(opts.MetricsPath, opts.Metrics)
	}
	health.Mount(mux, opts.Checker, opts.Version)

	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: slog.Default().With("component", "admin"),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("admin server is already running")
	}
	s.isRunning = true
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("starting admin server", "address", ln.Addr().String())

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("admin server error: %w", err)
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops the server, waiting briefly for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()
	if !running {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("admin server shutdown error: %w", err)
	}
	s.logger.Info("admin server stopped")
	return nil
}
