// Package metrics provides Prometheus metrics for the caching proxy.
//
// # Metrics Categories
//
//   - Connection Metrics: accepted, active and waiting connections
//   - Request Metrics: requests by method, route and status, handling duration
//   - Upstream Metrics: origin dials, failures, relayed bytes, capture overflows
//   - Cache Metrics: hits, misses, evictions, entries and bytes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// The collector is a cache.Observer.
//	store := cache.New(cache.Options{Observer: collector})
//
//	collector.RecordRequest("GET", "proxy", 200, 12*time.Millisecond)
//
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// When metrics are disabled every Record method returns immediately.
//
// # Cardinality
//
// Method labels come from client input. Unknown methods are reported as
// "OTHER" and upstream host labels are capped by a CardinalityLimiter, with
// overflow aggregated under "other".
package metrics
