package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"mercator-hq/cacheproxy/pkg/telemetry/logging"
	"mercator-hq/cacheproxy/pkg/wire"
)

const readChunk = 4096

// serveConn owns conn from accept to close.
func (s *Server) serveConn(conn net.Conn) {
	start := time.Now()
	defer s.untrack(conn)

	ctx := logging.WithConnID(s.baseCtx, uuid.NewString())
	ctx = logging.WithRemoteAddr(ctx, conn.RemoteAddr().String())

	if s.metrics != nil {
		s.metrics.ConnectionAccepted()
	}
	s.setState(ctx, conn, StateAccepted)

	if err := s.acquire(ctx); err != nil {
		s.logger.DebugContext(ctx, "connection dropped while waiting for a permit", "error", err)
		_ = conn.Close()
		s.closed(ctx, conn, start)
		return
	}
	defer func() {
		_ = conn.Close()
		s.release()
		s.closed(ctx, conn, start)
	}()

	s.setState(ctx, conn, StateReading)
	if s.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}

	raw, err := readHead(conn, s.config.MaxHeaderBytes)
	if len(raw) == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			s.logger.DebugContext(ctx, "no request received", "error", err)
		}
		return
	}

	req, err := wire.Parse(raw)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordParseError()
		}
		s.logger.InfoContext(ctx, "rejecting malformed request", "error", err)
		_, _ = wire.ErrorPage(400, "Malformed request").Send(&countingWriter{conn: conn, timeout: s.writeTimeout()}, s.cors)
		return
	}
	s.setState(ctx, conn, StateParsed)

	if err := s.readBody(ctx, conn, req); err != nil {
		s.logger.DebugContext(ctx, "request body incomplete", "error", err, "received", len(req.Body))
	}

	s.setState(ctx, conn, StateDispatched)
	s.dispatch(ctx, conn, req)
}

// dispatch runs the handler and turns a panic into a 500 when nothing has
// been written yet.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, req *wire.Request) {
	cw := &countingWriter{conn: conn, timeout: s.writeTimeout()}

	defer func() {
		if rec := recover(); rec != nil {
			if s.metrics != nil {
				s.metrics.RecordPanic()
			}
			s.logger.ErrorContext(ctx, "panic in handler",
				"error", rec,
				"method", req.Method,
				"path", req.Path,
				"stack", string(debug.Stack()),
			)
			if cw.n == 0 {
				_, _ = wire.ErrorPage(500, "Internal server error").Send(cw, s.cors)
			}
		}
	}()

	if _, err := s.handler.Dispatch(ctx, cw, req); err != nil {
		s.logger.DebugContext(ctx, "client write failed", "error", err, "written", cw.n)
	}
}

// writeTimeout falls back to the read timeout when no write timeout is set.
func (s *Server) writeTimeout() time.Duration {
	if s.config.WriteTimeout > 0 {
		return s.config.WriteTimeout
	}
	return s.config.ReadTimeout
}

func (s *Server) acquire(ctx context.Context) error {
	defer s.reportPermits()
	return s.permits.Acquire(ctx)
}

func (s *Server) release() {
	s.permits.Release()
	s.reportPermits()
}

func (s *Server) reportPermits() {
	if s.metrics != nil {
		s.metrics.UpdatePermits(s.permits.Current(), s.permits.Waiting())
	}
}

func (s *Server) closed(ctx context.Context, conn net.Conn, start time.Time) {
	if s.metrics != nil {
		s.metrics.ConnectionClosed(time.Since(start))
	}
	s.setState(ctx, conn, StateClosed)
}

func (s *Server) setState(ctx context.Context, conn net.Conn, state ConnState) {
	s.logger.DebugContext(ctx, "connection state", "state", state.String())
	if s.onState != nil {
		s.onState(conn, state)
	}
}

// readBody appends the rest of the declared body to req.Body, bounded by
// the configured body limit.
func (s *Server) readBody(ctx context.Context, conn net.Conn, req *wire.Request) error {
	limit := s.config.MaxBodyBytes
	if limit > 0 && int64(len(req.Body)) > limit {
		req.Body = req.Body[:limit]
	}

	want := req.Remaining()
	if want == 0 {
		return nil
	}
	if limit > 0 && int64(len(req.Body))+want > limit {
		s.logger.WarnContext(ctx, "request body exceeds limit, truncating",
			"content_length", req.ContentLength,
			"limit", limit,
		)
		want = limit - int64(len(req.Body))
	}

	expected := int64(len(req.Body)) + want
	buf := bytes.NewBuffer(req.Body)
	_, err := buf.ReadFrom(io.LimitReader(conn, want))
	req.Body = buf.Bytes()
	if err == nil && int64(len(req.Body)) < expected {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}

// readHead reads from r until the head terminator has been seen, limit bytes
// have been read or the peer stops sending. Whatever arrived is returned.
func readHead(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = readChunk
	}
	buf := make([]byte, 0, min(limit, readChunk))
	chunk := make([]byte, readChunk)

	for len(buf) < limit {
		n, err := r.Read(chunk[:min(readChunk, limit-len(buf))])
		if n > 0 {
			from := max(0, len(buf)-3)
			buf = append(buf, chunk[:n]...)
			if hasTerminator(buf[from:]) {
				return buf, nil
			}
		}
		if err != nil {
			return buf, err
		}
	}
	return buf, nil
}

func hasTerminator(b []byte) bool {
	return bytes.Contains(b, []byte("\r\n\r\n")) || bytes.Contains(b, []byte("\n\n"))
}

// writeChunk is the largest slice handed to the socket per deadline.
const writeChunk = 64 << 10

// countingWriter counts the bytes written to a client. Large writes are split
// and the write deadline is refreshed before every slice.
type countingWriter struct {
	conn    net.Conn
	timeout time.Duration
	n       int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		if c.timeout > 0 {
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
				return written, err
			}
		}
		n, err := c.conn.Write(p[:min(len(p), writeChunk)])
		written += n
		c.n += int64(n)
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}
