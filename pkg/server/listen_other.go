//go:build !unix

package server

import (
	"context"
	"fmt"
	"net"
)

// Listen opens a TCP listener on addr. Socket options and the backlog are
// left to the platform defaults.
func Listen(ctx context.Context, addr string, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ln, nil
}
