package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8000"
	DefaultMaxClients      = 1000
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxHeaderBytes  = 2000000
	DefaultMaxBodyBytes    = int64(64 << 20)
	DefaultShutdownTimeout = 30 * time.Second

	// Upstream defaults
	DefaultConnectTimeout   = 30 * time.Second
	DefaultUpstreamIdle     = 30 * time.Second
	DefaultMaxResponseBytes = int64(50 << 20)
	DefaultUserAgent        = "ProxyServer/1.0"

	// Cache defaults
	DefaultMaxElementSize = int64(10 << 20)
	DefaultMaxTotalSize   = int64(200 << 20)
	DefaultReportSchedule = "*/5 * * * *"

	// Storage defaults
	DefaultStorageBackend    = "filesystem"
	DefaultStorageDirectory  = "./Files"
	DefaultMaxFileSize       = int64(10 << 20)
	DefaultSQLitePath        = "data/files.db"
	DefaultSQLiteDriver      = "sqlite"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	// CORS defaults
	DefaultCORSAllowOrigin = "*"
	DefaultCORSMaxAge      = 86400

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsAddress   = "127.0.0.1:9090"
	DefaultPrometheusPath   = "/metrics"
	DefaultMetricsNamespace = "cacheproxy"

	// Tracing defaults
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingExporter    = "otlp"
	DefaultTracingService     = "cacheproxy"
	DefaultOTLPTimeout        = 10 * time.Second
)

// DefaultCORSAllowMethods is the default Access-Control-Allow-Methods list.
var DefaultCORSAllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}

// DefaultCORSAllowHeaders is the default Access-Control-Allow-Headers list.
var DefaultCORSAllowHeaders = []string{"Content-Type", "Authorization"}

// NewDefault returns a Config with every field at its default, including
// booleans whose default is true.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Cache.ReportSchedule = DefaultReportSchedule
	cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.MaxClients == 0 {
		cfg.Server.MaxClients = DefaultMaxClients
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Upstream defaults
	if cfg.Upstream.ConnectTimeout == 0 {
		cfg.Upstream.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Upstream.IdleTimeout == 0 {
		cfg.Upstream.IdleTimeout = DefaultUpstreamIdle
	}
	if cfg.Upstream.MaxResponseBytes == 0 {
		cfg.Upstream.MaxResponseBytes = DefaultMaxResponseBytes
	}
	if cfg.Upstream.UserAgent == "" {
		cfg.Upstream.UserAgent = DefaultUserAgent
	}

	// Cache defaults. Schedules stay empty when unset: empty disables them.
	if cfg.Cache.MaxElementSize == 0 {
		cfg.Cache.MaxElementSize = DefaultMaxElementSize
	}
	if cfg.Cache.MaxTotalSize == 0 {
		cfg.Cache.MaxTotalSize = DefaultMaxTotalSize
	}

	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Directory == "" {
		cfg.Storage.Directory = DefaultStorageDirectory
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	applyCORSDefaults(cfg)

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}

	applyTracingDefaults(&cfg.Telemetry.Tracing)
}

// applyTracingDefaults leaves SampleRatio alone: zero is a valid ratio.
func applyTracingDefaults(t *TracingConfig) {
	if t.Sampler == "" {
		t.Sampler = DefaultTracingSampler
	}
	if t.Exporter == "" {
		t.Exporter = DefaultTracingExporter
	}
	if t.ServiceName == "" {
		t.ServiceName = DefaultTracingService
	}
	if t.OTLP.Timeout == 0 {
		t.OTLP.Timeout = DefaultOTLPTimeout
	}
}

func applyCORSDefaults(cfg *Config) {
	if cfg.CORS.AllowOrigin == "" {
		cfg.CORS.AllowOrigin = DefaultCORSAllowOrigin
	}
	if len(cfg.CORS.AllowMethods) == 0 {
		cfg.CORS.AllowMethods = append([]string(nil), DefaultCORSAllowMethods...)
	}
	if len(cfg.CORS.AllowHeaders) == 0 {
		cfg.CORS.AllowHeaders = append([]string(nil), DefaultCORSAllowHeaders...)
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = DefaultCORSMaxAge
	}
}
