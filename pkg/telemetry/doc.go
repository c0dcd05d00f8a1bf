// Package telemetry groups the observability packages of cacheproxy.
//
// # Components
//
//   - logging: slog handlers with a runtime level and connection context
//   - metrics: Prometheus collectors for cache, connections, requests and origins
//   - tracing: OpenTelemetry spans for dispatch and origin exchanges
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json"})
//	logger.Install()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(ctx, &cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
// The admin server in package admin exposes the metrics and health handlers
// on the metrics listen address.
package telemetry
