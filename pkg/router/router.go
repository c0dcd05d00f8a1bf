package router

import (
	"context"
	"io"
	"log/slog"
	"net"
	"time"

	"mercator-hq/cacheproxy/pkg/cache"
	"mercator-hq/cacheproxy/pkg/storage"
	"mercator-hq/cacheproxy/pkg/telemetry/tracing"
	"mercator-hq/cacheproxy/pkg/upstream"
	"mercator-hq/cacheproxy/pkg/wire"

	"go.opentelemetry.io/otel/trace"
)

// Route names reported in Result and metrics.
const (
	RouteList      = "list"
	RouteFile      = "file"
	RouteCache     = "cache"
	RouteProxy     = "proxy"
	RouteForward   = "forward"
	RouteUpload    = "upload"
	RoutePreflight = "preflight"
	RouteNotFound  = "not_found"
	RouteReject    = "reject"
)

// Recorder receives request and origin measurements. *metrics.Collector
// implements it.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordUpstream(host, result string, duration time.Duration, relayed int64)
	RecordCaptureOverflow()
}

// Options configures a Router.
type Options struct {
	// Cache is the process-wide response cache. Required.
	Cache *cache.Store

	// Storage holds shared files. Required.
	Storage storage.Backend

	// Dialer opens origin connections. Default: upstream.NewDialer(0, 0).
	Dialer *upstream.Dialer

	// CORS is attached to every locally generated response.
	CORS wire.CORS

	// UserAgent is sent on synthesized origin requests.
	UserAgent string

	// MaxResponseBytes caps the cached copy of an origin response.
	MaxResponseBytes int64

	// MaxFileSize truncates uploaded bodies.
	MaxFileSize int64

	// Guard recognises requests addressed to this server.
	Guard *LoopGuard

	// Metrics is optional.
	Metrics Recorder

	// Tracer records dispatch and origin spans. Default: tracing.Noop().
	Tracer *tracing.Tracer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result summarises a dispatched request.
type Result struct {
	Route string

	// Status is the status sent, or the origin's status for relayed and
	// cached responses (0 when it could not be read).
	Status int

	// Bytes is the number of bytes written to the client.
	Bytes int64
}

// Router dispatches requests. It is safe for concurrent use.
type Router struct {
	cache       *cache.Store
	storage     storage.Backend
	dialer      *upstream.Dialer
	cors        wire.CORS
	userAgent   string
	maxResponse int64
	maxFile     int64
	guard       *LoopGuard
	metrics     Recorder
	tracer      *tracing.Tracer
	logger      *slog.Logger
}

// New creates a Router.
func New(opts Options) *Router {
	if opts.Dialer == nil {
		opts.Dialer = upstream.NewDialer(0, 0)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ProxyServer/1.0"
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = upstream.DefaultCaptureLimit
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 10 << 20
	}
	if opts.CORS.AllowOrigin == "" {
		opts.CORS = wire.DefaultCORS()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Router{
		cache:       opts.Cache,
		storage:     opts.Storage,
		dialer:      opts.Dialer,
		cors:        opts.CORS,
		userAgent:   opts.UserAgent,
		maxResponse: opts.MaxResponseBytes,
		maxFile:     opts.MaxFileSize,
		guard:       opts.Guard,
		metrics:     opts.Metrics,
		tracer:      opts.Tracer,
		logger:      opts.Logger.With("component", "router"),
	}
}

// CORS returns the header set attached to local responses.
func (r *Router) CORS() wire.CORS {
	return r.cors
}

// Dispatch answers req on w. The returned error is non-nil only when writing
// to the client failed; every other failure is turned into an error
// response.
func (r *Router) Dispatch(ctx context.Context, w io.Writer, req *wire.Request) (Result, error) {
	start := time.Now()
	method := ParseMethod(req.Method)

	ctx = r.tracer.Extract(ctx, req.Headers)
	ctx, span := r.tracer.Start(ctx, tracing.SpanDispatch,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(tracing.RequestAttributes(req.Method, req.Path, req.Host, req.Port)...),
	)
	defer span.End()

	var (
		res Result
		err error
	)
	switch method {
	case MethodGet:
		res, err = r.handleGet(ctx, w, req)
	case MethodPost:
		res, err = r.handlePost(ctx, w, req)
	case MethodPut:
		res, err = r.handlePut(ctx, w, req)
	case MethodOptions:
		res, err = r.send(w, RoutePreflight, wire.Preflight(r.cors))
	case MethodOther:
		res, err = r.send(w, RouteReject, wire.ErrorPage(405, "Method "+req.Method+" is not supported"))
	}

	tracing.SetResult(span, res.Route, res.Status, res.Bytes)
	tracing.SetError(span, err)
	if r.metrics != nil {
		r.metrics.RecordRequest(req.Method, res.Route, res.Status, time.Since(start))
	}
	r.logger.DebugContext(ctx, "request dispatched",
		"method", req.Method,
		"path", req.Path,
		"route", res.Route,
		"status", res.Status,
		"bytes", res.Bytes,
		"duration", time.Since(start),
	)
	return res, err
}

// send writes a locally generated response.
func (r *Router) send(w io.Writer, route string, resp *wire.Response) (Result, error) {
	n, err := resp.Send(w, r.cors)
	return Result{Route: route, Status: resp.Status, Bytes: n}, err
}

// CacheKey is the resource key of a proxied GET.
func CacheKey(host, port, path string) string {
	return net.JoinHostPort(host, port) + path
}
