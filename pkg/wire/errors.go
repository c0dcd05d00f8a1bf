package wire

import (
	"errors"
	"fmt"
)

// Sentinel parse failures. Compare with errors.Is.
var (
	// ErrMalformedRequestLine is returned when the head has no lines or the
	// request line has fewer than three tokens.
	ErrMalformedRequestLine = errors.New("malformed request line")

	// ErrMalformedHost is returned when the resolved port is not a number
	// between 1 and 65535.
	ErrMalformedHost = errors.New("malformed host")

	// ErrBadContentLength is returned when Content-Length is not a
	// non-negative integer.
	ErrBadContentLength = errors.New("invalid content-length")
)

// ParseError describes why a raw request could not be decoded.
type ParseError struct {
	// Reason is one of the sentinel errors above.
	Reason error

	// Detail is the offending input fragment, truncated for logging.
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parse request: %v", e.Reason)
	}
	return fmt.Sprintf("parse request: %v: %q", e.Reason, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

func newParseError(reason error, detail string) *ParseError {
	const maxDetail = 64
	if len(detail) > maxDetail {
		detail = detail[:maxDetail]
	}
	return &ParseError{Reason: reason, Detail: detail}
}
