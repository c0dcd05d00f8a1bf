package metrics

import (
	"strconv"
	"time"

	"mercator-hq/cacheproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ConnectionMetrics tracks client connections and the permit pool.
type ConnectionMetrics struct {
	accepted     prometheus.Counter
	active       prometheus.Gauge
	duration     prometheus.Histogram
	permitsInUse prometheus.Gauge
	waiting      prometheus.Gauge
	panics       prometheus.Counter
}

// NewConnectionMetrics creates and registers connection metrics.
func NewConnectionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ConnectionMetrics {
	cm := &ConnectionMetrics{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "connections_active",
			Help:      "Client connections accepted and not yet closed",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "connection_duration_seconds",
			Help:      "Lifetime of client connections",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30},
		}),
		permitsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "permits_in_use",
			Help:      "Connection permits currently held",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "permits_waiting",
			Help:      "Connections waiting for a permit",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "handler_panics_total",
			Help:      "Total number of recovered handler panics",
		}),
	}

	registry.MustRegister(cm.accepted, cm.active, cm.duration, cm.permitsInUse, cm.waiting, cm.panics)
	return cm
}

// RequestMetrics tracks dispatched requests.
//
// Metrics:
//   - cacheproxy_requests_total{method,route,status}
//   - cacheproxy_request_duration_seconds{method,route}
//   - cacheproxy_request_parse_errors_total
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	parseErrors     prometheus.Counter
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Time spent handling a request",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_parse_errors_total",
			Help:      "Total number of requests rejected as malformed",
		}),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration, rm.parseErrors)
	return rm
}

// RecordRequest records a single request.
func (rm *RequestMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	code := "relayed"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	rm.requestsTotal.WithLabelValues(method, route, code).Inc()
	rm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
