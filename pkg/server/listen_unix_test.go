//go:build unix

package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestListen_ReuseAddr(t *testing.T) {
	ln, err := Listen(context.Background(), "127.0.0.1:0", 16)
	require.NoError(t, err)
	defer ln.Close()

	raw, err := ln.(*net.TCPListener).SyscallConn()
	require.NoError(t, err)

	var (
		val  int
		gerr error
	)
	require.NoError(t, raw.Control(func(fd uintptr) {
		val, gerr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR)
	}))
	require.NoError(t, gerr)
	assert.NotZero(t, val)
}

func TestListen_InvalidAddress(t *testing.T) {
	_, err := Listen(context.Background(), "not-an-address", 16)
	assert.Error(t, err)
}
