// Package wire decodes raw HTTP/1.1 request bytes into structured requests and
// renders the fixed-shape responses the proxy writes back to clients.
//
// The parser works on bytes directly. Every byte is one character, so decoding
// never fails; only structural problems (no request line, too few tokens, a
// bad port or Content-Length) are reported, as *ParseError values.
//
// # Parsing
//
//	req, err := wire.Parse(buf)
//	if err != nil {
//	    // 400 Bad Request
//	}
//	need := req.Remaining() // body bytes still on the socket
//
// Host and port are always populated. They come from an absolute-form target
// ("http://host:port/path"), then from the Host header, then from the
// defaults "localhost" and "8080".
//
// # Responses
//
// Response renders a status line, the CORS header triad, any extra headers, a
// Content-Length matching the body and "Connection: close".
package wire
