package upstream

import (
	"context"
	"fmt"
	"net"
	"time"
)

const (
	// DefaultConnectTimeout bounds how long a dial may take.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultIdleTimeout bounds how long a single read or write on an origin
	// connection may block.
	DefaultIdleTimeout = 30 * time.Second
)

// ConnectError reports that the origin could not be reached.
type ConnectError struct {
	Host string
	Port string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", net.JoinHostPort(e.Host, e.Port), e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Dialer opens origin connections.
type Dialer struct {
	// ConnectTimeout bounds the dial. Default: 30s.
	ConnectTimeout time.Duration

	// IdleTimeout is applied as a deadline before every read and write on
	// the returned connection. Zero disables it.
	IdleTimeout time.Duration

	// DialContext opens the TCP connection. NewDialer sets it to a
	// net.Dialer bounded by ConnectTimeout.
	DialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewDialer creates a Dialer with the given timeouts. Non-positive values
// select the defaults.
func NewDialer(connectTimeout, idleTimeout time.Duration) *Dialer {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if idleTimeout < 0 {
		idleTimeout = DefaultIdleTimeout
	}
	d := &Dialer{ConnectTimeout: connectTimeout, IdleTimeout: idleTimeout}
	nd := &net.Dialer{Timeout: connectTimeout}
	d.DialContext = nd.DialContext
	return d
}

// Dial connects to host:port over TCP.
func (d *Dialer) Dial(ctx context.Context, host, port string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, d.ConnectTimeout)
	defer cancel()

	dial := d.DialContext
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	conn, err := dial(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, &ConnectError{Host: host, Port: port, Err: err}
	}
	if d.IdleTimeout > 0 {
		conn = &idleConn{Conn: conn, timeout: d.IdleTimeout}
	}
	return conn, nil
}

// idleConn refreshes the connection deadline before every I/O call so a
// stalled origin ends the relay instead of pinning the handler.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *idleConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

// CloseWrite half-closes conn when its transport supports it, signalling the
// origin that the request is complete.
func CloseWrite(conn net.Conn) error {
	if ic, ok := conn.(*idleConn); ok {
		conn = ic.Conn
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}
