// Package tracing records OpenTelemetry spans for dispatched requests and
// origin exchanges.
//
// A disabled Tracer hands out non-recording spans and neither extracts nor
// injects trace context, so callers can use it unconditionally. An enabled
// Tracer exports through OTLP over gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	    sampler: ratio
//	    sample_ratio: 0.1
//	    otlp:
//	      insecure: true
//
// Incoming traceparent and tracestate headers are honoured through Extract,
// and synthesized origin requests carry the current context through Inject.
package tracing
