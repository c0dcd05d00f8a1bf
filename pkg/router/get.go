package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"mercator-hq/cacheproxy/pkg/storage"
	"mercator-hq/cacheproxy/pkg/telemetry/tracing"
	"mercator-hq/cacheproxy/pkg/upstream"
	"mercator-hq/cacheproxy/pkg/wire"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListPath returns the stored file names as a JSON array.
const ListPath = "/list"

func (r *Router) handleGet(ctx context.Context, w io.Writer, req *wire.Request) (Result, error) {
	if stripQuery(req.Path) == ListPath {
		return r.serveList(ctx, w)
	}

	if name := storage.BaseName(req.Path); name != "" && r.storage.Exists(ctx, name) {
		return r.serveFile(ctx, w, req, name)
	}

	if r.guard.IsSelf(req.Host, req.Port) {
		return r.send(w, RouteNotFound, wire.ErrorPage(404, "File not found: "+req.Path))
	}

	return r.proxyGet(ctx, w, req)
}

func (r *Router) serveList(ctx context.Context, w io.Writer) (Result, error) {
	names, err := r.storage.List(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list storage", "error", err)
		return r.send(w, RouteList, wire.ErrorPage(500, "Could not list files"))
	}
	if names == nil {
		names = []string{}
	}

	body, err := json.Marshal(names)
	if err != nil {
		return r.send(w, RouteList, wire.ErrorPage(500, "Could not list files"))
	}
	return r.send(w, RouteList, &wire.Response{
		Status:  200,
		Headers: []wire.Header{{Name: "Content-Type", Value: "application/json"}},
		Body:    body,
	})
}

// serveFile downloads a stored file and admits the rendered response under
// the request path.
func (r *Router) serveFile(ctx context.Context, w io.Writer, req *wire.Request, name string) (Result, error) {
	data, err := r.storage.Read(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return r.send(w, RouteNotFound, wire.ErrorPage(404, "File not found: "+name))
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read stored file", "name", name, "error", err)
		return r.send(w, RouteFile, wire.ErrorPage(500, "Could not read "+name))
	}

	resp := &wire.Response{
		Status: 200,
		Headers: []wire.Header{
			{Name: "Content-Type", Value: "application/octet-stream"},
			{Name: "Content-Disposition", Value: fmt.Sprintf("attachment; filename=%q", name)},
		},
		Body: data,
	}
	rendered := resp.Render(r.cors)

	n, werr := w.Write(rendered)
	if werr == nil && !r.cache.Admit(req.Path, rendered) {
		r.logger.DebugContext(ctx, "response not cached", "key", req.Path, "size", len(rendered))
	}
	return Result{Route: RouteFile, Status: 200, Bytes: int64(n)}, werr
}

// proxyGet serves a GET from the cache or fetches it from the origin with a
// synthesized request, relaying the response as it arrives.
func (r *Router) proxyGet(ctx context.Context, w io.Writer, req *wire.Request) (Result, error) {
	key := CacheKey(req.Host, req.Port, req.Path)

	payload, ok := r.cache.Find(key)
	tracing.SetCacheLookup(trace.SpanFromContext(ctx), key, ok)
	if ok {
		n, err := w.Write(payload)
		return Result{Route: RouteCache, Status: upstream.StatusCode(payload), Bytes: int64(n)}, err
	}

	relay, res, err := r.exchange(ctx, w, req, RouteProxy, r.maxResponse)
	if err == nil && relay.Captured != nil && relay.Status == 200 {
		if !r.cache.Admit(key, relay.Captured) {
			r.logger.DebugContext(ctx, "response not cached", "key", key, "size", len(relay.Captured))
		}
	}
	return res, err
}

// synthesizeGet builds the origin request for a proxied GET, carrying the
// trace context of ctx when tracing is enabled.
func (r *Router) synthesizeGet(ctx context.Context, req *wire.Request) []byte {
	host := req.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if req.Port != "80" {
		host += ":" + req.Port
	}

	var b strings.Builder
	b.WriteString("GET ")
	b.WriteString(req.Path)
	b.WriteString(" HTTP/1.1\r\nHost: ")
	b.WriteString(host)
	b.WriteString("\r\nConnection: close\r\nUser-Agent: ")
	b.WriteString(r.userAgent)
	b.WriteString("\r\n")
	for _, h := range r.tracer.Inject(ctx) {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// exchange sends req to its origin and relays the answer to w, capturing up
// to capture bytes. RouteProxy sends a synthesized GET and RouteForward the
// request verbatim. When the origin cannot be reached or sends nothing, a
// 502 is written instead and the returned RelayResult is empty. The
// returned error is non-nil only for client write failures.
func (r *Router) exchange(ctx context.Context, w io.Writer, req *wire.Request, route string, capture int64) (upstream.RelayResult, Result, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, tracing.SpanUpstream,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.RequestAttributes(req.Method, req.Path, req.Host, req.Port)...),
	)
	defer span.End()

	fail := func(result, msg string, err error) (upstream.RelayResult, Result, error) {
		r.recordUpstream(req.Host, result, start, 0)
		tracing.SetUpstreamResult(span, result, 0)
		tracing.SetError(span, err)
		r.logger.WarnContext(ctx, "origin exchange failed",
			"host", req.Host,
			"port", req.Port,
			"result", result,
			"error", err,
		)
		res, werr := r.send(w, route, wire.ErrorPage(502, msg))
		return upstream.RelayResult{}, res, werr
	}

	origin := net.JoinHostPort(req.Host, req.Port)
	conn, err := r.dialer.Dial(ctx, req.Host, req.Port)
	if err != nil {
		return fail("connect_error", "Could not connect to "+origin, err)
	}
	defer conn.Close()

	out := req.Raw()
	if route == RouteProxy {
		out = r.synthesizeGet(ctx, req)
	}
	if _, err := conn.Write(out); err != nil {
		return fail("relay_error", "Could not send request to "+origin, err)
	}
	if route == RouteForward {
		_ = upstream.CloseWrite(conn)
	}

	relay, err := upstream.Relay(w, conn, capture)
	switch {
	case errors.Is(err, upstream.ErrClientWrite):
		r.recordUpstream(req.Host, "client_error", start, relay.Relayed)
		tracing.SetUpstreamResult(span, "client_error", relay.Relayed)
		tracing.SetError(span, err)
		relay.Captured = nil
		return relay, Result{Route: route, Status: relay.Status, Bytes: relay.Relayed}, err

	case relay.Relayed == 0:
		if err == nil {
			err = errors.New("origin closed without responding")
		}
		return fail("relay_error", "No response from "+origin, err)

	case errors.Is(err, upstream.ErrCaptureOverflow):
		if r.metrics != nil {
			r.metrics.RecordCaptureOverflow()
		}
		r.logger.DebugContext(ctx, "origin response too large to cache", "host", req.Host, "relayed", relay.Relayed)
		r.recordUpstream(req.Host, "ok", start, relay.Relayed)
		tracing.SetUpstreamResult(span, "ok", relay.Relayed)

	case err != nil:
		// The client keeps the bytes it already received.
		r.logger.WarnContext(ctx, "origin relay interrupted", "host", req.Host, "relayed", relay.Relayed, "error", err)
		r.recordUpstream(req.Host, "relay_error", start, relay.Relayed)
		tracing.SetUpstreamResult(span, "relay_error", relay.Relayed)
		tracing.SetError(span, err)
		relay.Captured = nil

	default:
		r.recordUpstream(req.Host, "ok", start, relay.Relayed)
		tracing.SetUpstreamResult(span, "ok", relay.Relayed)
	}
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatusCode, relay.Status))

	return relay, Result{Route: route, Status: relay.Status, Bytes: relay.Relayed}, nil
}

func (r *Router) recordUpstream(host, result string, start time.Time, relayed int64) {
	if r.metrics != nil {
		r.metrics.RecordUpstream(host, result, time.Since(start), relayed)
	}
}

func stripQuery(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		return p[:i]
	}
	return p
}
