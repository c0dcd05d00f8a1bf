package metrics

import (
	"sync"
	"time"

	"mercator-hq/cacheproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// maxUpstreamHosts bounds the number of distinct host label values.
const maxUpstreamHosts = 1000

// Collector owns the Prometheus registry and every metric the proxy records.
// It implements cache.Observer.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	connMetrics     *ConnectionMetrics
	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	cacheMetrics    *CacheMetrics

	hostLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector with the specified configuration
// and registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		connMetrics:     NewConnectionMetrics(cfg, registry),
		requestMetrics:  NewRequestMetrics(cfg, registry),
		upstreamMetrics: NewUpstreamMetrics(cfg, registry),
		cacheMetrics:    NewCacheMetrics(cfg, registry),
		hostLimiter:     NewCardinalityLimiter(maxUpstreamHosts),
	}
}

// Enabled reports whether metrics are being recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// ConnectionAccepted records a newly accepted client connection.
func (c *Collector) ConnectionAccepted() {
	if !c.Enabled() {
		return
	}
	c.connMetrics.accepted.Inc()
	c.connMetrics.active.Inc()
}

// ConnectionClosed records the end of a connection and its lifetime.
func (c *Collector) ConnectionClosed(lifetime time.Duration) {
	if !c.Enabled() {
		return
	}
	c.connMetrics.active.Dec()
	c.connMetrics.duration.Observe(lifetime.Seconds())
}

// UpdatePermits reports permit pool usage.
func (c *Collector) UpdatePermits(inUse, waiting int64) {
	if !c.Enabled() {
		return
	}
	c.connMetrics.permitsInUse.Set(float64(inUse))
	c.connMetrics.waiting.Set(float64(waiting))
}

// RecordPanic counts a recovered handler panic.
func (c *Collector) RecordPanic() {
	if !c.Enabled() {
		return
	}
	c.connMetrics.panics.Inc()
}

// RecordRequest records a dispatched request.
//
// Parameters:
//   - method: request method; anything outside GET/POST/PUT/OPTIONS is "OTHER"
//   - route: handler that answered ("list", "file", "proxy", "upload", ...)
//   - status: status code sent to the client, or 0 when origin bytes were relayed
//   - duration: time from dispatch to completion
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	c.requestMetrics.RecordRequest(normalizeMethod(method), route, status, duration)
}

// RecordParseError counts a request rejected before dispatch.
func (c *Collector) RecordParseError() {
	if !c.Enabled() {
		return
	}
	c.requestMetrics.parseErrors.Inc()
}

// RecordUpstream records one origin exchange.
//
// Parameters:
//   - host: origin host
//   - result: "ok", "connect_error", "relay_error"
//   - duration: dial plus relay time
//   - relayed: bytes copied to the client
func (c *Collector) RecordUpstream(host, result string, duration time.Duration, relayed int64) {
	if !c.Enabled() {
		return
	}
	if !c.hostLimiter.Allow(host) {
		host = "other"
	}
	c.upstreamMetrics.Record(host, result, duration, relayed)
}

// RecordCaptureOverflow counts a response relayed but too large to cache.
func (c *Collector) RecordCaptureOverflow() {
	if !c.Enabled() {
		return
	}
	c.upstreamMetrics.overflows.Inc()
}

// CacheHit implements cache.Observer.
func (c *Collector) CacheHit() {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.hitsTotal.Inc()
}

// CacheMiss implements cache.Observer.
func (c *Collector) CacheMiss() {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.missesTotal.Inc()
}

// CacheEvicted implements cache.Observer.
func (c *Collector) CacheEvicted(n int) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.evictionsTotal.Add(float64(n))
}

// CacheSize implements cache.Observer.
func (c *Collector) CacheSize(entries int, bytes int64) {
	if !c.Enabled() {
		return
	}
	c.cacheMetrics.entries.Set(float64(entries))
	c.cacheMetrics.bytes.Set(float64(bytes))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func normalizeMethod(method string) string {
	switch method {
	case "GET", "POST", "PUT", "OPTIONS":
		return method
	default:
		return "OTHER"
	}
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether a label value may be used: it was seen before or the
// limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
