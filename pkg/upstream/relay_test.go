package upstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failWriter struct{ after int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("broken pipe")
	}
	w.after--
	return len(p), nil
}

type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestRelay(t *testing.T) {
	t.Run("captures small response", func(t *testing.T) {
		payload := []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")
		var dst bytes.Buffer

		res, err := Relay(&dst, bytes.NewReader(payload), DefaultCaptureLimit)
		require.NoError(t, err)
		assert.Equal(t, payload, dst.Bytes())
		assert.Equal(t, payload, res.Captured)
		assert.Equal(t, int64(len(payload)), res.Relayed)
		assert.Equal(t, 200, res.Status)
		assert.False(t, res.Overflow)
	})

	t.Run("overflow keeps relaying", func(t *testing.T) {
		payload := bytes.Repeat([]byte("x"), 3*ReadChunk+17)
		var dst bytes.Buffer

		res, err := Relay(&dst, bytes.NewReader(payload), ReadChunk)
		assert.ErrorIs(t, err, ErrCaptureOverflow)
		assert.True(t, res.Overflow)
		assert.Nil(t, res.Captured)
		assert.Equal(t, len(payload), dst.Len())
		assert.Equal(t, int64(len(payload)), res.Relayed)
	})

	t.Run("exact limit is captured", func(t *testing.T) {
		payload := bytes.Repeat([]byte("y"), 2*ReadChunk)
		res, err := Relay(io.Discard, bytes.NewReader(payload), int64(len(payload)))
		require.NoError(t, err)
		assert.Len(t, res.Captured, len(payload))
	})

	t.Run("zero limit disables capture", func(t *testing.T) {
		res, err := Relay(io.Discard, strings.NewReader("abc"), 0)
		require.NoError(t, err)
		assert.Nil(t, res.Captured)
		assert.Equal(t, int64(3), res.Relayed)
	})

	t.Run("empty origin", func(t *testing.T) {
		res, err := Relay(io.Discard, strings.NewReader(""), DefaultCaptureLimit)
		require.NoError(t, err)
		assert.Nil(t, res.Captured)
		assert.Zero(t, res.Relayed)
	})

	t.Run("client write failure", func(t *testing.T) {
		payload := bytes.Repeat([]byte("z"), 2*ReadChunk)
		res, err := Relay(&failWriter{after: 1}, bytes.NewReader(payload), DefaultCaptureLimit)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrClientWrite)
		assert.Equal(t, int64(ReadChunk), res.Relayed)
	})

	t.Run("origin read failure", func(t *testing.T) {
		src := &errReader{data: []byte("partial"), err: errors.New("reset")}
		var dst bytes.Buffer
		res, err := Relay(&dst, src, DefaultCaptureLimit)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOriginRead)
		assert.Equal(t, "partial", dst.String())
		assert.Nil(t, res.Captured)
	})
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"HTTP/1.1 200 OK\r\n\r\n", 200},
		{"HTTP/1.0 404 Not Found\r\n", 404},
		{"HTTP/1.1 301\r\n", 301},
		{"HTTP/1.1 20x OK\r\n", 0},
		{"HTTP/1.1 2000 OK\r\n", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode([]byte(tt.raw)))
		})
	}
}

func TestDialer(t *testing.T) {
	t.Run("connects", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		go func() {
			c, err := ln.Accept()
			if err == nil {
				c.Write([]byte("hi"))
				c.Close()
			}
		}()

		host, port, _ := net.SplitHostPort(ln.Addr().String())
		d := NewDialer(time.Second, time.Second)
		conn, err := d.Dial(context.Background(), host, port)
		require.NoError(t, err)
		defer conn.Close()

		got, err := io.ReadAll(conn)
		require.NoError(t, err)
		assert.Equal(t, "hi", string(got))
	})

	t.Run("refused", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		host, port, _ := net.SplitHostPort(ln.Addr().String())
		ln.Close()

		_, err = NewDialer(time.Second, 0).Dial(context.Background(), host, port)
		var ce *ConnectError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, host, ce.Host)
		assert.Equal(t, port, ce.Port)
	})

	t.Run("dial failure is wrapped", func(t *testing.T) {
		boom := errors.New("no route")
		d := NewDialer(time.Second, 0)
		d.DialContext = func(context.Context, string, string) (net.Conn, error) { return nil, boom }

		_, err := d.Dial(context.Background(), "origin.test", "80")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "connect origin.test:80: no route", err.Error())
	})

	t.Run("idle timeout ends stalled read", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		hold := make(chan struct{})
		defer close(hold)
		go func() {
			c, err := ln.Accept()
			if err == nil {
				<-hold
				c.Close()
			}
		}()

		host, port, _ := net.SplitHostPort(ln.Addr().String())
		conn, err := NewDialer(time.Second, 50*time.Millisecond).Dial(context.Background(), host, port)
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Read(make([]byte, 1))
		var ne net.Error
		require.ErrorAs(t, err, &ne)
		assert.True(t, ne.Timeout())
	})
}
