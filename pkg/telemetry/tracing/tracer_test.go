package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/cacheproxy/pkg/config"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig(sampler string) *config.TracingConfig {
	return &config.TracingConfig{
		Enabled:     true,
		Sampler:     sampler,
		SampleRatio: 1.0,
		Exporter:    "otlp",
		Endpoint:    "localhost:4317",
		ServiceName: "cacheproxy-test",
	}
}

func newRecordingTracer(t *testing.T, sampler string) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tr, err := NewWithExporter(testConfig(sampler), "test", exp)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, exp
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{"nil config", nil, true, false},
		{"disabled", &config.TracingConfig{Enabled: false}, false, false},
		{"unknown exporter", &config.TracingConfig{Enabled: true, Exporter: "zipkin", Endpoint: "localhost:9411"}, true, false},
		{"otlp", &config.TracingConfig{
			Enabled:     true,
			Sampler:     "always",
			Exporter:    "otlp",
			Endpoint:    "localhost:4317",
			ServiceName: "cacheproxy-test",
			OTLP:        config.OTLPConfig{Insecure: true, Timeout: time.Second},
		}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(context.Background(), tt.cfg, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = tr.Shutdown(ctx)
			}()
			if tr.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tr.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestNoop(t *testing.T) {
	tr := Noop()
	if tr.Enabled() {
		t.Error("Noop tracer should be disabled")
	}

	ctx, span := tr.Start(context.Background(), "op")
	span.End()
	if span.IsRecording() {
		t.Error("noop span should not record")
	}
	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID() = %q, want empty", got)
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_ChildSpans(t *testing.T) {
	tr, exp := newRecordingTracer(t, SamplerAlways)

	ctx, parent := tr.Start(context.Background(), SpanDispatch)
	_, child := tr.Start(ctx, SpanUpstream)
	child.End()
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name != SpanUpstream || spans[1].Name != SpanDispatch {
		t.Errorf("span order = %s, %s", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("upstream span should be a child of dispatch")
	}
	if spans[0].SpanContext.TraceID() != spans[1].SpanContext.TraceID() {
		t.Error("spans should share a trace ID")
	}
	if got := TraceID(ctx); got != spans[1].SpanContext.TraceID().String() {
		t.Errorf("TraceID() = %q, want %q", got, spans[1].SpanContext.TraceID())
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tr, exp := newRecordingTracer(t, SamplerNever)

	_, span := tr.Start(context.Background(), SpanDispatch)
	span.End()

	if n := len(exp.GetSpans()); n != 0 {
		t.Errorf("exported %d spans, want 0", n)
	}
}

func TestSetError(t *testing.T) {
	tr, exp := newRecordingTracer(t, SamplerAlways)

	_, span := tr.Start(context.Background(), "op")
	SetError(span, nil)
	SetError(span, errors.New("boom"))
	span.End()

	s := exp.GetSpans()[0]
	if s.Status.Code != codes.Error || s.Status.Description != "boom" {
		t.Errorf("status = %v %q, want Error boom", s.Status.Code, s.Status.Description)
	}
	if len(s.Events) != 1 {
		t.Errorf("got %d events, want 1 recorded error", len(s.Events))
	}
}

func TestSetStatus(t *testing.T) {
	tr, exp := newRecordingTracer(t, SamplerAlways)

	_, ok := tr.Start(context.Background(), "ok")
	SetStatus(ok, nil)
	ok.End()
	_, failed := tr.Start(context.Background(), "failed")
	SetStatus(failed, errors.New("nope"))
	failed.End()

	spans := exp.GetSpans()
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("ok status = %v, want Ok", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error {
		t.Errorf("failed status = %v, want Error", spans[1].Status.Code)
	}
}

func TestAttributes(t *testing.T) {
	tr, exp := newRecordingTracer(t, SamplerAlways)

	_, span := tr.Start(context.Background(), SpanDispatch)
	span.SetAttributes(RequestAttributes("GET", "/a", "example.com", "80")...)
	SetResult(span, "proxy", 200, 42)
	SetCacheLookup(span, "example.com:80/a", false)
	SetUpstreamResult(span, "ok", 42)
	span.End()

	got := map[string]string{}
	for _, kv := range exp.GetSpans()[0].Attributes {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		AttrHTTPMethod:     "GET",
		AttrHTTPTarget:     "/a",
		AttrPeerName:       "example.com",
		AttrPeerPort:       "80",
		AttrRoute:          "proxy",
		AttrHTTPStatusCode: "200",
		AttrResponseBytes:  "42",
		AttrCacheKey:       "example.com:80/a",
		AttrCacheHit:       "false",
		AttrUpstreamResult: "ok",
		AttrRelayedBytes:   "42",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestRequestAttributes_NoHost(t *testing.T) {
	attrs := RequestAttributes("PUT", "/f.txt", "", "")
	if len(attrs) != 2 {
		t.Errorf("got %d attributes, want 2", len(attrs))
	}
}
