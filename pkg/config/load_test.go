package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9000"
  max_clients: 64
  read_timeout: "10s"

upstream:
  user_agent: "TestAgent/2.0"

cache:
  max_element_size: 1024
  max_total_size: 4096
  flush_schedule: "0 4 * * *"

storage:
  backend: "sqlite"
  sqlite:
    path: "./test-files.db"
    driver: "sqlite3"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9000", cfg.Server.ListenAddress)
	}
	if cfg.Server.MaxClients != 64 {
		t.Errorf("expected max clients 64, got %d", cfg.Server.MaxClients)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected read timeout %v, got %v", 10*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Upstream.UserAgent != "TestAgent/2.0" {
		t.Errorf("expected user agent %q, got %q", "TestAgent/2.0", cfg.Upstream.UserAgent)
	}
	if cfg.Cache.MaxTotalSize != 4096 {
		t.Errorf("expected max total size 4096, got %d", cfg.Cache.MaxTotalSize)
	}
	if cfg.Storage.SQLite.Driver != "sqlite3" {
		t.Errorf("expected driver sqlite3, got %q", cfg.Storage.SQLite.Driver)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Unset fields keep their defaults.
	if cfg.Upstream.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("expected connect timeout %v, got %v", DefaultConnectTimeout, cfg.Upstream.ConnectTimeout)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Cache.ReportSchedule != DefaultReportSchedule {
		t.Errorf("expected report schedule %q, got %q", DefaultReportSchedule, cfg.Cache.ReportSchedule)
	}
}

func TestLoadConfig_ExplicitFalseAndEmpty(t *testing.T) {
	path := writeConfig(t, `
cache:
  report_schedule: ""
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Cache.ReportSchedule != "" {
		t.Errorf("expected report schedule disabled, got %q", cfg.Cache.ReportSchedule)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
cache:
  max_element_size: 2048
  max_total_size: 1024
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !verr.HasField("cache.max_element_size") {
		t.Errorf("expected cache.max_element_size error, got %v", verr)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9000"
`)

	t.Setenv("CACHEPROXY_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("CACHEPROXY_SERVER_MAX_CLIENTS", "12")
	t.Setenv("CACHEPROXY_SERVER_READ_TIMEOUT", "5s")
	t.Setenv("CACHEPROXY_CACHE_MAX_TOTAL_SIZE", "99999999")
	t.Setenv("CACHEPROXY_STORAGE_DIRECTORY", "/tmp/shared")
	t.Setenv("CACHEPROXY_CORS_ALLOW_METHODS", "GET, OPTIONS")
	t.Setenv("CACHEPROXY_TELEMETRY_METRICS_ENABLED", "false")
	t.Setenv("CACHEPROXY_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("CACHEPROXY_UPSTREAM_CONNECT_TIMEOUT", "not-a-duration")
	t.Setenv("CACHEPROXY_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("expected listen address override, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.MaxClients != 12 {
		t.Errorf("expected max clients 12, got %d", cfg.Server.MaxClients)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Cache.MaxTotalSize != 99999999 {
		t.Errorf("expected max total size override, got %d", cfg.Cache.MaxTotalSize)
	}
	if cfg.Storage.Directory != "/tmp/shared" {
		t.Errorf("expected directory override, got %q", cfg.Storage.Directory)
	}
	if got := strings.Join(cfg.CORS.AllowMethods, ","); got != "GET,OPTIONS" {
		t.Errorf("expected methods GET,OPTIONS, got %q", got)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled by env")
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Upstream.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("malformed duration should be ignored, got %v", cfg.Upstream.ConnectTimeout)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("expected sample ratio 0.25, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	path := writeConfig(t, "{}")
	t.Setenv("CACHEPROXY_STORAGE_BACKEND", "s3")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("expected validation error after override")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigOrDefaults(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Setenv("CACHEPROXY_SERVER_LISTEN_ADDRESS", "127.0.0.1:8123")

		cfg, err := LoadConfigOrDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.ListenAddress != "127.0.0.1:8123" {
			t.Errorf("expected env override on defaults, got %q", cfg.Server.ListenAddress)
		}
		if cfg.Server.MaxClients != DefaultMaxClients {
			t.Errorf("expected default max clients, got %d", cfg.Server.MaxClients)
		}
	})

	t.Run("existing file is loaded", func(t *testing.T) {
		path := writeConfig(t, "server:\n  max_clients: 3\n")
		cfg, err := LoadConfigOrDefaults(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.MaxClients != 3 {
			t.Errorf("expected max clients 3, got %d", cfg.Server.MaxClients)
		}
	})
}
