package tracing

import (
	"context"
	"testing"

	"mercator-hq/cacheproxy/pkg/wire"

	"go.opentelemetry.io/otel/trace"
)

const remoteParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestHeaderCarrier(t *testing.T) {
	headers := []wire.Header{
		{Name: "Host", Value: "example.com"},
		{Name: "TraceParent", Value: "old"},
	}
	c := HeaderCarrier{Headers: &headers}

	if got := c.Get("traceparent"); got != "old" {
		t.Errorf("Get(traceparent) = %q, want old", got)
	}
	if got := c.Get("tracestate"); got != "" {
		t.Errorf("Get(tracestate) = %q, want empty", got)
	}

	c.Set("traceparent", "new")
	c.Set("tracestate", "a=b")
	if len(headers) != 3 {
		t.Fatalf("len(headers) = %d, want 3", len(headers))
	}
	if headers[1].Name != "TraceParent" || headers[1].Value != "new" {
		t.Errorf("Set should replace in place, got %+v", headers[1])
	}

	keys := c.Keys()
	want := []string{"Host", "TraceParent", "tracestate"}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestExtract(t *testing.T) {
	tr, _ := newRecordingTracer(t, SamplerAlways)
	headers := []wire.Header{{Name: "traceparent", Value: remoteParent}}

	ctx := tr.Extract(context.Background(), headers)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsRemote() {
		t.Fatal("extracted span context should be remote")
	}
	if got := sc.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID = %s", got)
	}
}

func TestExtract_Disabled(t *testing.T) {
	headers := []wire.Header{{Name: "traceparent", Value: remoteParent}}

	ctx := Noop().Extract(context.Background(), headers)
	if trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("disabled tracer should not extract context")
	}
}

func TestInject(t *testing.T) {
	tr, exp := newRecordingTracer(t, SamplerAlways)

	ctx := tr.Extract(context.Background(), []wire.Header{{Name: "traceparent", Value: remoteParent}})
	ctx, span := tr.Start(ctx, SpanUpstream)
	headers := tr.Inject(ctx)
	span.End()

	c := HeaderCarrier{Headers: &headers}
	got := c.Get("traceparent")
	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-" + exp.GetSpans()[0].SpanContext.SpanID().String() + "-01"
	if got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}
}

func TestInject_NoSpan(t *testing.T) {
	tr, _ := newRecordingTracer(t, SamplerAlways)
	if headers := tr.Inject(context.Background()); len(headers) != 0 {
		t.Errorf("Inject() = %v, want none", headers)
	}
	if headers := Noop().Inject(context.Background()); headers != nil {
		t.Errorf("Noop().Inject() = %v, want nil", headers)
	}
}
