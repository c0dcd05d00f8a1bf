package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"mercator-hq/cacheproxy/pkg/config"
	"mercator-hq/cacheproxy/pkg/limits"
	"mercator-hq/cacheproxy/pkg/router"
	"mercator-hq/cacheproxy/pkg/wire"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server closed")

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Handler answers a parsed request. *router.Router implements it.
type Handler interface {
	Dispatch(ctx context.Context, w io.Writer, req *wire.Request) (router.Result, error)
}

// Recorder receives connection measurements. *metrics.Collector implements
// it.
type Recorder interface {
	ConnectionAccepted()
	ConnectionClosed(lifetime time.Duration)
	UpdatePermits(inUse, waiting int64)
	RecordPanic()
	RecordParseError()
}

// Options holds the optional collaborators of a Server.
type Options struct {
	// Permits limits concurrent connections. Default: a pool of
	// cfg.MaxClients permits.
	Permits *limits.PermitPool

	// CORS is attached to the 400 and 500 responses the server writes
	// itself. Default: wire.DefaultCORS().
	CORS wire.CORS

	// Metrics is optional.
	Metrics Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// ConnState, when set, is called on every connection state change.
	ConnState func(net.Conn, ConnState)
}

// Server is the connection supervisor.
type Server struct {
	config   *config.ServerConfig
	handler  Handler
	permits  *limits.PermitPool
	cors     wire.CORS
	metrics  Recorder
	logger   *slog.Logger
	onState  func(net.Conn, ConnState)
	listener net.Listener

	// baseCtx is cancelled when Shutdown gives up waiting, which unblocks
	// connections still waiting for a permit.
	baseCtx context.Context
	cancel  context.CancelFunc

	conns        map[net.Conn]struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error
	mu           sync.RWMutex
	isRunning    bool
	inShutdown   bool
}

// NewServer creates a server for handler configured by cfg.
func NewServer(cfg *config.ServerConfig, handler Handler, opts Options) *Server {
	if opts.Permits == nil {
		opts.Permits = limits.NewPermitPool(cfg.MaxClients)
	}
	if opts.CORS.AllowOrigin == "" {
		opts.CORS = wire.DefaultCORS()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Server{
		config:  cfg,
		handler: handler,
		permits: opts.Permits,
		cors:    opts.CORS,
		metrics: opts.Metrics,
		logger:  opts.Logger.With("component", "server"),
		onState: opts.ConnState,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on ln until Shutdown is called or ctx is
// cancelled, and always returns a non-nil error. After Shutdown the error is
// ErrServerClosed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	if s.inShutdown {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.isRunning = true
	s.listener = ln
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		s.logger.Info("context cancelled, initiating shutdown")
		_ = s.Shutdown(context.Background())
	})
	defer stop()

	s.logger.Info("starting proxy server",
		"address", ln.Addr().String(),
		"max_clients", s.permits.Limit(),
	)

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				s.mu.Lock()
				s.isRunning = false
				s.mu.Unlock()
				return fmt.Errorf("accept: %w", err)
			}

			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(2*backoff, maxAcceptBackoff)
			}
			s.logger.Error("accept failed, retrying", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()
			return ErrServerClosed
		}
		go s.serveConn(conn)
	}
}

// Shutdown stops accepting connections and waits for in-flight ones up to
// the configured shutdown timeout or until ctx is done, then closes whatever
// is still open. Concurrent and repeated calls wait for the first one and
// return its result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.inShutdown = true
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		ln := s.listener
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.shutdownErr = fmt.Errorf("close listener: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-shutdownCtx.Done():
			n := s.closeAll()
			s.logger.Warn("shutdown timeout exceeded, closing connections", "open", n)
			<-done
			if s.shutdownErr == nil {
				s.shutdownErr = fmt.Errorf("server shutdown error: %w", shutdownCtx.Err())
			}
		}
		s.cancel()

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return s.shutdownErr
}

// IsRunning returns true while Serve is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning && !s.inShutdown
}

// Health reports whether the server accepts connections.
func (s *Server) Health() error {
	if !s.IsRunning() {
		return fmt.Errorf("server is not running")
	}
	return nil
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Permits returns the connection permit pool.
func (s *Server) Permits() *limits.PermitPool {
	return s.permits
}

// ActiveConnections returns the number of open client connections.
func (s *Server) ActiveConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *Server) shuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inShutdown
}

// track registers conn and adds it to the wait group. It returns false once
// shutdown has begun.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inShutdown {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) closeAll() int {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
	return len(s.conns)
}
