package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanDispatch = "cacheproxy.dispatch"
	SpanUpstream = "cacheproxy.upstream"
)

// Attribute keys set on proxy spans.
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPTarget     = "http.target"
	AttrHTTPStatusCode = "http.status_code"
	AttrPeerName       = "net.peer.name"
	AttrPeerPort       = "net.peer.port"

	AttrRoute          = "cacheproxy.route"
	AttrResponseBytes  = "cacheproxy.response.bytes"
	AttrCacheKey       = "cacheproxy.cache.key"
	AttrCacheHit       = "cacheproxy.cache.hit"
	AttrUpstreamResult = "cacheproxy.upstream.result"
	AttrRelayedBytes   = "cacheproxy.upstream.relayed_bytes"

	AttrErrorMessage = "error.message"
)

// RequestAttributes describes an incoming request.
func RequestAttributes(method, target, host, port string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPTarget, target),
	}
	if host != "" {
		attrs = append(attrs,
			attribute.String(AttrPeerName, host),
			attribute.String(AttrPeerPort, port),
		)
	}
	return attrs
}

// SetResult records how a request was answered.
func SetResult(span trace.Span, route string, status int, bytes int64) {
	span.SetAttributes(
		attribute.String(AttrRoute, route),
		attribute.Int(AttrHTTPStatusCode, status),
		attribute.Int64(AttrResponseBytes, bytes),
	)
}

// SetCacheLookup records a cache probe.
func SetCacheLookup(span trace.Span, key string, hit bool) {
	span.SetAttributes(
		attribute.String(AttrCacheKey, key),
		attribute.Bool(AttrCacheHit, hit),
	)
}

// SetUpstreamResult records the outcome of an origin exchange.
func SetUpstreamResult(span trace.Span, result string, relayed int64) {
	span.SetAttributes(
		attribute.String(AttrUpstreamResult, result),
		attribute.Int64(AttrRelayedBytes, relayed),
	)
}
