package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether any error concerns the named field.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCORS(&cfg.CORS)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if msg := checkAddress(cfg.ListenAddress); msg != "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: msg})
	}
	if cfg.MaxClients <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_clients",
			Message: "max clients must be positive",
		})
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must not be negative",
		})
	}
	if cfg.MaxHeaderBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be positive",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.ConnectTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.connect_timeout",
			Message: "connect timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.idle_timeout",
			Message: "idle timeout must be non-negative",
		})
	}
	if cfg.MaxResponseBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.max_response_bytes",
			Message: "max response bytes must be positive",
		})
	}
	if hasLineBreak(cfg.UserAgent) {
		errs = append(errs, FieldError{
			Field:   "upstream.user_agent",
			Message: "user agent must not contain line breaks",
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxElementSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_element_size",
			Message: "max element size must be positive",
		})
	}
	if cfg.MaxTotalSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_total_size",
			Message: "max total size must be positive",
		})
	}
	if cfg.MaxElementSize > cfg.MaxTotalSize {
		errs = append(errs, FieldError{
			Field:   "cache.max_element_size",
			Message: fmt.Sprintf("max element size (%d) must not exceed max total size (%d)", cfg.MaxElementSize, cfg.MaxTotalSize),
		})
	}
	if cfg.ReportSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReportSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "cache.report_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if cfg.FlushSchedule != "" {
		if _, err := cron.ParseStandard(cfg.FlushSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "cache.flush_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "filesystem":
		if cfg.Directory == "" {
			errs = append(errs, FieldError{
				Field:   "storage.directory",
				Message: "directory is required for the filesystem backend",
			})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("driver must be sqlite or sqlite3, got %q", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("backend must be filesystem or sqlite, got %q", cfg.Backend),
		})
	}

	if cfg.MaxFileSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "storage.max_file_size",
			Message: "max file size must be positive",
		})
	}

	return errs
}

func validateCORS(cfg *CORSConfig) []FieldError {
	var errs []FieldError

	if cfg.AllowOrigin == "" || hasLineBreak(cfg.AllowOrigin) {
		errs = append(errs, FieldError{
			Field:   "cors.allow_origin",
			Message: "allow origin must be a single non-empty header value",
		})
	}
	for _, m := range cfg.AllowMethods {
		if m == "" || hasLineBreak(m) {
			errs = append(errs, FieldError{
				Field:   "cors.allow_methods",
				Message: fmt.Sprintf("invalid method %q", m),
			})
		}
	}
	for _, h := range cfg.AllowHeaders {
		if h == "" || hasLineBreak(h) {
			errs = append(errs, FieldError{
				Field:   "cors.allow_headers",
				Message: fmt.Sprintf("invalid header %q", h),
			})
		}
	}
	if cfg.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "cors.max_age",
			Message: "max age must be non-negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("level must be debug, info, warn or error, got %q", cfg.Logging.Level),
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("format must be json, text or console, got %q", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if msg := checkAddress(cfg.Metrics.ListenAddress); msg != "" {
			errs = append(errs, FieldError{Field: "telemetry.metrics.listen_address", Message: msg})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "path must start with /",
			})
		}
	}

	errs = append(errs, validateTracing(&cfg.Tracing)...)

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("sample ratio must be between 0 and 1, got %g", cfg.SampleRatio),
		})
	}
	switch cfg.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("sampler must be always, never or ratio, got %q", cfg.Sampler),
		})
	}
	if !cfg.Enabled {
		return errs
	}
	if cfg.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("unsupported exporter %q", cfg.Exporter),
		})
	}
	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	} else if msg := checkAddress(cfg.Endpoint); msg != "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: msg})
	}

	return errs
}

// checkAddress returns a message describing why addr is not host:port, or "".
func checkAddress(addr string) string {
	if addr == "" {
		return "listen address is required"
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Sprintf("invalid address %q: %v", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Sprintf("invalid port %q", port)
	}
	return ""
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}
