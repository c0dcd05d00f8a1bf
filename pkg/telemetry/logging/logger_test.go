package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantErr    bool
		wantFormat LogFormat
	}{
		{
			name:       "valid JSON config",
			config:     Config{Level: "info", Format: "json"},
			wantFormat: FormatJSON,
		},
		{
			name:       "valid text config",
			config:     Config{Level: "debug", Format: "text"},
			wantFormat: FormatText,
		},
		{
			name:       "valid console config",
			config:     Config{Level: "warn", Format: "console"},
			wantFormat: FormatConsole,
		},
		{
			name:       "defaults",
			config:     Config{},
			wantFormat: FormatJSON,
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.config.Writer = buf

			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if logger.Format() != tt.wantFormat {
				t.Errorf("Format() = %v, want %v", logger.Format(), tt.wantFormat)
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Slog().Info("listening", "address", "0.0.0.0:8000")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "listening" {
		t.Errorf("msg = %v, want listening", record["msg"])
	}
	if record["address"] != "0.0.0.0:8000" {
		t.Errorf("address = %v, want 0.0.0.0:8000", record["address"])
	}
}

func TestLogger_SetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	derived := logger.With("component", "server")

	derived.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level: %q", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want DEBUG", logger.Level())
	}

	derived.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("derived logger did not follow level change: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "component=server") {
		t.Errorf("missing component attr: %q", buf.String())
	}

	if err := logger.SetLevel("loud"); err == nil {
		t.Error("SetLevel(loud) should fail")
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("failed SetLevel changed level to %v", logger.Level())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "debug", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithConnID(context.Background(), "c-123")
	ctx = WithRemoteAddr(ctx, "10.0.0.7:5555")
	logger.With("component", "server").InfoContext(ctx, "request parsed", "method", "GET")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := map[string]string{
		"conn_id":     "c-123",
		"remote_addr": "10.0.0.7:5555",
		"method":      "GET",
		"component":   "server",
	}
	for k, v := range want {
		if record[k] != v {
			t.Errorf("%s = %v, want %v", k, record[k], v)
		}
	}
}

func TestLogger_NoContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Format: "json", Writer: buf})

	logger.Slog().InfoContext(context.Background(), "plain")
	if strings.Contains(buf.String(), "conn_id") {
		t.Errorf("unexpected conn_id in %q", buf.String())
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	if GetConnID(ctx) != "" || GetRemoteAddr(ctx) != "" {
		t.Fatal("empty context should have no fields")
	}
	ctx = WithConnID(ctx, "id")
	ctx = WithRemoteAddr(ctx, "addr")
	if GetConnID(ctx) != "id" {
		t.Errorf("GetConnID() = %q, want id", GetConnID(ctx))
	}
	if GetRemoteAddr(ctx) != "addr" {
		t.Errorf("GetRemoteAddr() = %q, want addr", GetRemoteAddr(ctx))
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"json", "text", "console", "JSON", ""} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false, want true", f)
		}
	}
	if ValidFormat("xml") {
		t.Error("ValidFormat(xml) = true, want false")
	}
	if !ValidLevel("warn") || ValidLevel("verbose") {
		t.Error("ValidLevel mismatch")
	}
}
