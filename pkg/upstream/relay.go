package upstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// ReadChunk is the size of a single origin read.
	ReadChunk = 4096

	// DefaultCaptureLimit bounds the cached copy of a relayed response (50 MiB).
	DefaultCaptureLimit = 50 << 20
)

var (
	// ErrCaptureOverflow means the origin response outgrew the capture limit.
	// The client still received every byte; only the cached copy was dropped.
	ErrCaptureOverflow = errors.New("response exceeds capture limit")

	// ErrClientWrite wraps failures writing to the client.
	ErrClientWrite = errors.New("write to client")

	// ErrOriginRead wraps failures reading from the origin.
	ErrOriginRead = errors.New("read from origin")
)

// RelayResult describes a finished relay.
type RelayResult struct {
	// Relayed is the number of bytes written to the client.
	Relayed int64

	// Status is the origin status code read from the first chunk, 0 when it
	// did not start with a status line.
	Status int

	// Captured holds the full response when it fit within the limit, nil
	// otherwise.
	Captured []byte

	// Overflow is set when the capture was dropped.
	Overflow bool
}

// Relay copies src to dst in ReadChunk pieces until src is exhausted. When
// limit is positive, up to limit bytes are also kept in RelayResult.Captured;
// once exceeded the copy is discarded and relaying continues uncaptured. A
// limit of zero disables capture.
//
// A capture overflow returns ErrCaptureOverflow after src is drained. Read
// errors other than io.EOF and all write errors are returned together with
// the partial result.
func Relay(dst io.Writer, src io.Reader, limit int64) (RelayResult, error) {
	var (
		res     RelayResult
		capture *bytes.Buffer
	)
	if limit > 0 {
		capture = new(bytes.Buffer)
	}

	buf := make([]byte, ReadChunk)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if res.Relayed == 0 {
				res.Status = StatusCode(buf[:n])
			}
			w, werr := dst.Write(buf[:n])
			res.Relayed += int64(w)
			if werr != nil {
				return res, fmt.Errorf("%w: %w", ErrClientWrite, werr)
			}

			if capture != nil {
				if int64(capture.Len()+n) > limit {
					capture = nil
					res.Overflow = true
				} else {
					capture.Write(buf[:n])
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return res, fmt.Errorf("%w: %w", ErrOriginRead, rerr)
		}
	}

	if res.Overflow {
		return res, ErrCaptureOverflow
	}
	if capture != nil && capture.Len() > 0 {
		res.Captured = capture.Bytes()
	}
	return res, nil
}

// StatusCode extracts the status code from the first line of a raw HTTP
// response. It returns 0 when the line is not a status line.
func StatusCode(raw []byte) int {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	fields := bytes.Fields(line)
	if len(fields) < 2 || !bytes.HasPrefix(fields[0], []byte("HTTP/")) {
		return 0
	}
	code := 0
	for _, c := range fields[1] {
		if c < '0' || c > '9' {
			return 0
		}
		code = code*10 + int(c-'0')
	}
	if len(fields[1]) != 3 {
		return 0
	}
	return code
}
