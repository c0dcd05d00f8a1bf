package wire

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// CORS is the fixed cross-origin header set attached to every locally
// generated response.
type CORS struct {
	AllowOrigin  string
	AllowMethods []string
	AllowHeaders []string

	// MaxAge is the preflight cache duration in seconds, sent on OPTIONS.
	MaxAge int
}

// DefaultCORS returns the header set the file-share frontend expects.
func DefaultCORS() CORS {
	return CORS{
		AllowOrigin:  "*",
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       86400,
	}
}

// Response is a complete, non-streamed response.
type Response struct {
	Status  int
	Headers []Header
	Body    []byte
}

// StatusText returns the reason phrase for code.
func StatusText(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}
	return "Error"
}

// Render serialises the response. Content-Length always matches Body and the
// connection is always marked for close.
func (r *Response) Render(cors CORS) []byte {
	var b bytes.Buffer
	b.Grow(256 + len(r.Body))

	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.Status, StatusText(r.Status))
	b.WriteString("Access-Control-Allow-Origin: ")
	b.WriteString(cors.AllowOrigin)
	b.WriteString("\r\nAccess-Control-Allow-Methods: ")
	b.WriteString(strings.Join(cors.AllowMethods, ", "))
	b.WriteString("\r\nAccess-Control-Allow-Headers: ")
	b.WriteString(strings.Join(cors.AllowHeaders, ", "))
	b.WriteString("\r\n")
	for _, h := range r.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("Content-Length: ")
	b.WriteString(strconv.Itoa(len(r.Body)))
	b.WriteString("\r\nConnection: close\r\n\r\n")
	b.Write(r.Body)

	return b.Bytes()
}

// Send renders the response and writes it to w in a single call.
func (r *Response) Send(w io.Writer, cors CORS) (int64, error) {
	n, err := w.Write(r.Render(cors))
	return int64(n), err
}

// ErrorPage builds an HTML error response for status with an escaped message.
func ErrorPage(status int, message string) *Response {
	text := StatusText(status)
	body := fmt.Sprintf(
		"<html><head><title>%d %s</title></head><body><h1>%d %s</h1><p>%s</p></body></html>",
		status, text, status, text, html.EscapeString(message),
	)
	return &Response{
		Status:  status,
		Headers: []Header{{Name: "Content-Type", Value: "text/html"}},
		Body:    []byte(body),
	}
}

// Preflight builds the 204 answer to an OPTIONS request.
func Preflight(cors CORS) *Response {
	return &Response{
		Status: http.StatusNoContent,
		Headers: []Header{
			{Name: "Access-Control-Max-Age", Value: strconv.Itoa(cors.MaxAge)},
		},
	}
}
