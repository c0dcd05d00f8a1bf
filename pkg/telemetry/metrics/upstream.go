package metrics

import (
	"time"

	"mercator-hq/cacheproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks exchanges with origin servers.
//
// Metrics:
//   - cacheproxy_upstream_requests_total{host,result}
//   - cacheproxy_upstream_duration_seconds{result}
//   - cacheproxy_upstream_relayed_bytes_total
//   - cacheproxy_upstream_capture_overflows_total
type UpstreamMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	relayedBytes  prometheus.Counter
	overflows     prometheus.Counter
}

// NewUpstreamMetrics creates and registers upstream metrics.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of origin exchanges by host and result",
			},
			[]string{"host", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_duration_seconds",
				Help:      "Time spent dialing and relaying origin responses",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"result"},
		),
		relayedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "upstream_relayed_bytes_total",
			Help:      "Total bytes relayed from origins to clients",
		}),
		overflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "upstream_capture_overflows_total",
			Help:      "Origin responses relayed but too large to cache",
		}),
	}

	registry.MustRegister(um.requestsTotal, um.duration, um.relayedBytes, um.overflows)
	return um
}

// Record records a single origin exchange.
func (um *UpstreamMetrics) Record(host, result string, duration time.Duration, relayed int64) {
	um.requestsTotal.WithLabelValues(host, result).Inc()
	um.duration.WithLabelValues(result).Observe(duration.Seconds())
	if relayed > 0 {
		um.relayedBytes.Add(float64(relayed))
	}
}
