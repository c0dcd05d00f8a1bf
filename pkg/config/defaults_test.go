package config

import (
	"reflect"
	"testing"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"server.listen_address", cfg.Server.ListenAddress, DefaultListenAddress},
		{"server.max_clients", cfg.Server.MaxClients, DefaultMaxClients},
		{"server.write_timeout", cfg.Server.WriteTimeout, DefaultWriteTimeout},
		{"server.max_header_bytes", cfg.Server.MaxHeaderBytes, DefaultMaxHeaderBytes},
		{"upstream.max_response_bytes", cfg.Upstream.MaxResponseBytes, DefaultMaxResponseBytes},
		{"upstream.user_agent", cfg.Upstream.UserAgent, DefaultUserAgent},
		{"cache.max_element_size", cfg.Cache.MaxElementSize, DefaultMaxElementSize},
		{"cache.max_total_size", cfg.Cache.MaxTotalSize, DefaultMaxTotalSize},
		{"cache.report_schedule", cfg.Cache.ReportSchedule, DefaultReportSchedule},
		{"cache.flush_schedule", cfg.Cache.FlushSchedule, ""},
		{"storage.backend", cfg.Storage.Backend, DefaultStorageBackend},
		{"storage.directory", cfg.Storage.Directory, DefaultStorageDirectory},
		{"storage.max_file_size", cfg.Storage.MaxFileSize, DefaultMaxFileSize},
		{"cors.allow_origin", cfg.CORS.AllowOrigin, "*"},
		{"cors.allow_methods", cfg.CORS.AllowMethods, []string{"GET", "POST", "PUT", "OPTIONS"}},
		{"cors.allow_headers", cfg.CORS.AllowHeaders, []string{"Content-Type", "Authorization"}},
		{"cors.max_age", cfg.CORS.MaxAge, 86400},
		{"telemetry.metrics.enabled", cfg.Telemetry.Metrics.Enabled, true},
		{"telemetry.metrics.namespace", cfg.Telemetry.Metrics.Namespace, DefaultMetricsNamespace},
		{"telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled, false},
		{"telemetry.tracing.sampler", cfg.Telemetry.Tracing.Sampler, "ratio"},
		{"telemetry.tracing.sample_ratio", cfg.Telemetry.Tracing.SampleRatio, 1.0},
		{"telemetry.tracing.service_name", cfg.Telemetry.Tracing.ServiceName, "cacheproxy"},
		{"telemetry.tracing.otlp.timeout", cfg.Telemetry.Tracing.OTLP.Timeout, DefaultOTLPTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_PreservesSetValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.MaxClients = 7
	cfg.CORS.AllowMethods = []string{"GET"}
	cfg.Storage.Backend = "sqlite"

	ApplyDefaults(cfg)

	if cfg.Server.MaxClients != 7 {
		t.Errorf("MaxClients = %d, want 7", cfg.Server.MaxClients)
	}
	if len(cfg.CORS.AllowMethods) != 1 {
		t.Errorf("AllowMethods = %v, want [GET]", cfg.CORS.AllowMethods)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	a := NewDefault()
	b := NewDefault()
	ApplyDefaults(b)
	ApplyDefaults(b)
	if !reflect.DeepEqual(a, b) {
		t.Error("ApplyDefaults changed an already defaulted config")
	}
}

func TestApplyDefaults_CopiesCORSLists(t *testing.T) {
	cfg := NewDefault()
	cfg.CORS.AllowMethods[0] = "PATCH"
	if DefaultCORSAllowMethods[0] != "GET" {
		t.Error("defaults slice was aliased")
	}
}
