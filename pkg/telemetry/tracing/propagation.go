package tracing

import (
	"context"
	"strings"

	"mercator-hq/cacheproxy/pkg/wire"
)

// HeaderCarrier adapts a wire header list to propagation.TextMapCarrier.
// Lookups are case-insensitive and Set replaces the first match.
type HeaderCarrier struct {
	Headers *[]wire.Header
}

// Get returns the first value for key.
func (c HeaderCarrier) Get(key string) string {
	for _, h := range *c.Headers {
		if strings.EqualFold(h.Name, key) {
			return h.Value
		}
	}
	return ""
}

// Set stores value under key.
func (c HeaderCarrier) Set(key, value string) {
	for i, h := range *c.Headers {
		if strings.EqualFold(h.Name, key) {
			(*c.Headers)[i].Value = value
			return
		}
	}
	*c.Headers = append(*c.Headers, wire.Header{Name: key, Value: value})
}

// Keys lists the header names in order.
func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.Headers))
	for _, h := range *c.Headers {
		keys = append(keys, h.Name)
	}
	return keys
}

// Extract returns ctx carrying the remote span context found in headers.
// A disabled Tracer returns ctx unchanged.
func (t *Tracer) Extract(ctx context.Context, headers []wire.Header) context.Context {
	if !t.enabled {
		return ctx
	}
	return t.propagator.Extract(ctx, HeaderCarrier{Headers: &headers})
}

// Inject returns the headers that carry ctx's span context to an origin,
// or nil when there is nothing to send.
func (t *Tracer) Inject(ctx context.Context) []wire.Header {
	if !t.enabled {
		return nil
	}
	var headers []wire.Header
	t.propagator.Inject(ctx, HeaderCarrier{Headers: &headers})
	return headers
}
