package config

import "time"

// Config is the root configuration structure for the caching proxy.
type Config struct {
	// Server contains listener and connection handling settings.
	Server ServerConfig `yaml:"server"`

	// Upstream contains settings for connections to origin servers.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Cache contains response cache limits and maintenance schedules.
	Cache CacheConfig `yaml:"cache"`

	// Storage selects where shared files are kept.
	Storage StorageConfig `yaml:"storage"`

	// CORS contains the headers added to every locally generated response.
	CORS CORSConfig `yaml:"cors"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the connection supervisor.
type ServerConfig struct {
	// ListenAddress is the address and port to accept clients on.
	// Default: "0.0.0.0:8000"
	ListenAddress string `yaml:"listen_address"`

	// MaxClients is the number of connections handled at once. Further
	// connections wait for a free slot. Also used as the listen backlog.
	// Default: 1000
	MaxClients int `yaml:"max_clients"`

	// ReadTimeout bounds every read from a client socket.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds each 64 KiB slice written to a client socket.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeaderBytes caps the bytes read while looking for the end of the
	// request head.
	// Default: 2000000
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps the request body read per Content-Length.
	// Default: 67108864 (64 MiB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout is how long Shutdown waits for in-flight connections.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig contains configuration for origin connections.
type UpstreamConfig struct {
	// ConnectTimeout bounds dialing an origin.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// IdleTimeout bounds a single read or write on an origin connection.
	// Default: 30s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// MaxResponseBytes caps the copy of an origin response kept for the
	// cache. Larger responses are still relayed in full.
	// Default: 52428800 (50 MiB)
	MaxResponseBytes int64 `yaml:"max_response_bytes"`

	// UserAgent is sent on synthesized origin requests.
	// Default: "ProxyServer/1.0"
	UserAgent string `yaml:"user_agent"`
}

// CacheConfig contains configuration for the response cache.
type CacheConfig struct {
	// MaxElementSize is the largest entry (payload plus key) admitted.
	// Default: 10485760 (10 MiB)
	MaxElementSize int64 `yaml:"max_element_size"`

	// MaxTotalSize is the byte budget of the whole cache.
	// Default: 209715200 (200 MiB)
	MaxTotalSize int64 `yaml:"max_total_size"`

	// ReportSchedule is a cron expression for logging cache statistics.
	// Empty disables the report.
	// Default: "*/5 * * * *"
	ReportSchedule string `yaml:"report_schedule"`

	// FlushSchedule is a cron expression for clearing the cache.
	// Empty disables flushing.
	// Default: ""
	FlushSchedule string `yaml:"flush_schedule"`
}

// StorageConfig contains configuration for shared file storage.
type StorageConfig struct {
	// Backend is "filesystem" or "sqlite".
	// Default: "filesystem"
	Backend string `yaml:"backend"`

	// Directory holds files for the filesystem backend.
	// Default: "./Files"
	Directory string `yaml:"directory"`

	// MaxFileSize truncates PUT uploads.
	// Default: 10485760 (10 MiB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/files.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (modernc.org/sqlite, pure Go) or "sqlite3"
	// (github.com/mattn/go-sqlite3, requires cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CORSConfig contains the Access-Control headers sent on local responses.
type CORSConfig struct {
	// AllowOrigin is sent as Access-Control-Allow-Origin.
	// Default: "*"
	AllowOrigin string `yaml:"allow_origin"`

	// AllowMethods is sent as Access-Control-Allow-Methods.
	// Default: ["GET", "POST", "PUT", "OPTIONS"]
	AllowMethods []string `yaml:"allow_methods"`

	// AllowHeaders is sent as Access-Control-Allow-Headers.
	// Default: ["Content-Type", "Authorization"]
	AllowHeaders []string `yaml:"allow_headers"`

	// MaxAge is sent as Access-Control-Max-Age on preflight responses.
	// Default: 86400
	MaxAge int `yaml:"max_age"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Changes to this field are applied without a restart.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json", "text" or "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where the metrics endpoint is served.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "cacheproxy"
	Namespace string `yaml:"namespace"`

	// Subsystem is placed between namespace and metric name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of root spans sampled when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter names the span exporter. Only "otlp" is supported.
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector address (host:port).
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "cacheproxy"
	ServiceName string `yaml:"service_name"`

	// OTLP contains exporter transport settings.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter settings.
type OTLPConfig struct {
	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
