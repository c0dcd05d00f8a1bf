package wire

import (
	"bytes"
	"net"
	"strconv"
	"strings"
)

const (
	// MaxHeaderLines bounds how many header lines are kept per request.
	// Lines past the limit are dropped without error.
	MaxHeaderLines = 50

	// DefaultHost is used when neither the target nor a Host header names one.
	DefaultHost = "localhost"

	// DefaultPort is used when the resolved host carries no port.
	DefaultPort = "8080"
)

// HostSource records where a request's host and port were resolved from.
type HostSource int

const (
	// HostDefault means the host fell back to DefaultHost.
	HostDefault HostSource = iota
	// HostFromHeader means the Host header supplied the host.
	HostFromHeader
	// HostFromTarget means the request line carried an absolute URI.
	HostFromTarget
)

func (s HostSource) String() string {
	switch s {
	case HostFromHeader:
		return "header"
	case HostFromTarget:
		return "target"
	default:
		return "default"
	}
}

// Header is a single request header line. Order and duplicates are preserved.
type Header struct {
	Name  string
	Value string
}

// Request is a decoded HTTP request head plus whatever body bytes have been
// read so far.
type Request struct {
	Method  string
	Target  string
	Path    string
	Version string

	Host       string
	Port       string
	HostSource HostSource

	Headers []Header

	// ContentLength is the declared body length, 0 when absent.
	ContentLength int64

	// Head holds the raw bytes before the head/body separator.
	Head []byte

	// sep is the separator that ended Head on the wire.
	sep string

	// Body holds the body bytes received so far. The connection supervisor
	// appends the rest (see Remaining) before dispatch.
	Body []byte
}

// Parse decodes raw into a Request. raw must contain at least the request
// line; anything after the first blank line becomes the initial Body.
func Parse(raw []byte) (*Request, error) {
	head, sep, body := splitHead(raw)

	lines := splitLines(head)
	if len(lines) == 0 {
		return nil, newParseError(ErrMalformedRequestLine, "")
	}

	fields := strings.Fields(lines[0])
	if len(fields) < 3 {
		return nil, newParseError(ErrMalformedRequestLine, lines[0])
	}

	req := &Request{
		Method:  fields[0],
		Target:  fields[1],
		Version: fields[2],
		Head:    head,
		Body:    body,
		sep:     sep,
	}

	req.Headers = parseHeaders(lines[1:])

	if err := req.resolveTarget(); err != nil {
		return nil, err
	}

	if cl := req.Header("Content-Length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, newParseError(ErrBadContentLength, cl)
		}
		req.ContentLength = n
	}

	return req, nil
}

// Unparse renders req back into wire form: request line, headers, blank line
// and body. It returns nil when the request line is incomplete.
func Unparse(req *Request) []byte {
	if req == nil || req.Method == "" || req.Version == "" {
		return nil
	}
	target := req.Target
	if target == "" {
		target = req.Path
	}
	if target == "" {
		return nil
	}

	var buf bytes.Buffer
	buf.Grow(len(req.Head) + len(req.Body) + 4)
	buf.WriteString(req.Method)
	buf.WriteByte(' ')
	buf.WriteString(target)
	buf.WriteByte(' ')
	buf.WriteString(req.Version)
	buf.WriteString("\r\n")
	for _, h := range req.Headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.Write(req.Body)
	return buf.Bytes()
}

// Raw returns the request exactly as it was received: the head, its
// separator and the body. A request built without Parse is separated with
// CRLF CRLF.
func (r *Request) Raw() []byte {
	sep := r.sep
	if sep == "" {
		sep = "\r\n\r\n"
	}
	out := make([]byte, 0, len(r.Head)+len(sep)+len(r.Body))
	out = append(out, r.Head...)
	out = append(out, sep...)
	return append(out, r.Body...)
}

// Header returns the value of the first header named name (case-insensitive).
func (r *Request) Header(name string) string {
	v, _ := r.lookupHeader(name)
	return v
}

// Remaining reports how many body bytes are still expected on the wire.
func (r *Request) Remaining() int64 {
	n := r.ContentLength - int64(len(r.Body))
	if n < 0 {
		return 0
	}
	return n
}

// resolveTarget fills Path, Host and Port from the target and Host header.
func (r *Request) resolveTarget() error {
	const scheme = "http://"

	if len(r.Target) >= len(scheme) && strings.EqualFold(r.Target[:len(scheme)], scheme) {
		rest := r.Target[len(scheme):]
		hostport, path := rest, "/"
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			hostport, path = rest[:i], rest[i:]
		}
		r.Path = path

		host, port, ok := splitHostPort(hostport)
		if !ok {
			port = DefaultPort
		}
		r.Host, r.Port = host, port
		if host != "" {
			r.HostSource = HostFromTarget
		}
	} else {
		r.Path = r.Target
	}

	if r.Host == "" {
		if v, found := r.lookupHeader("Host"); found {
			host, port, ok := splitHostPort(v)
			r.Host = host
			if ok {
				r.Port = port
			}
			if host != "" {
				r.HostSource = HostFromHeader
			}
		}
	}

	if r.Host == "" {
		r.Host = DefaultHost
		r.HostSource = HostDefault
	}
	if r.Port == "" {
		r.Port = DefaultPort
	}
	if r.Path == "" {
		r.Path = "/"
	}

	if n, err := strconv.Atoi(r.Port); err != nil || n < 1 || n > 65535 {
		return newParseError(ErrMalformedHost, r.Host+":"+r.Port)
	}
	return nil
}

func (r *Request) lookupHeader(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// splitHead cuts raw at the first "\r\n\r\n" or "\n\n", whichever comes first.
func splitHead(raw []byte) (head []byte, sep string, body []byte) {
	crlf := bytes.Index(raw, []byte("\r\n\r\n"))
	lf := bytes.Index(raw, []byte("\n\n"))

	switch {
	case crlf >= 0 && (lf < 0 || crlf <= lf):
		return raw[:crlf], "\r\n\r\n", raw[crlf+4:]
	case lf >= 0:
		return raw[:lf], "\n\n", raw[lf+2:]
	default:
		return raw, "", nil
	}
}

// splitLines splits on "\n" and strips a trailing "\r" from every line.
func splitLines(head []byte) []string {
	if len(head) == 0 {
		return nil
	}
	parts := strings.Split(string(head), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

func parseHeaders(lines []string) []Header {
	if len(lines) > MaxHeaderLines {
		lines = lines[:MaxHeaderLines]
	}

	headers := make([]Header, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return headers
}

// splitHostPort splits "host[:port]". ok is false when no port is present.
// Bracketed IPv6 literals are unwrapped.
func splitHostPort(s string) (host, port string, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if h, p, err := net.SplitHostPort(s); err == nil {
			return h, p, true
		}
		return strings.Trim(s, "[]"), "", false
	}
	host, port, ok = strings.Cut(s, ":")
	return strings.TrimSpace(host), strings.TrimSpace(port), ok
}
