package router

import (
	"net"
	"os"
	"strings"
)

// LoopGuard recognises origins that are this server itself, so a request for
// a missing local file is not proxied back to the proxy.
type LoopGuard struct {
	port  string
	names map[string]struct{}
}

// NewLoopGuard builds a guard for a server bound to addr (host:port). The
// loopback names, the wildcard addresses, the machine hostname and the bound
// host all count as self when paired with the bound port.
func NewLoopGuard(addr string) *LoopGuard {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = "", addr
	}

	g := &LoopGuard{
		port: port,
		names: map[string]struct{}{
			"localhost": {},
			"127.0.0.1": {},
			"::1":       {},
			"0.0.0.0":   {},
			"::":        {},
		},
	}
	if host != "" {
		g.names[strings.ToLower(host)] = struct{}{}
	}
	if hn, err := os.Hostname(); err == nil && hn != "" {
		g.names[strings.ToLower(hn)] = struct{}{}
	}
	return g
}

// IsSelf reports whether host:port addresses this server. A nil guard
// matches nothing.
func (g *LoopGuard) IsSelf(host, port string) bool {
	if g == nil || port != g.port {
		return false
	}
	_, ok := g.names[strings.ToLower(host)]
	return ok
}
