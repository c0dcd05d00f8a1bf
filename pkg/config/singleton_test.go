package config

import (
	"path/filepath"
	"testing"
)

// resetSingleton restores the package globals for the next test.
func resetSingleton() {
	SetConfig(nil)
}

func TestSetConfig(t *testing.T) {
	defer resetSingleton()
	resetSingleton()

	if GetConfig() != nil {
		t.Fatal("GetConfig() should be nil before SetConfig")
	}
	cfg := NewDefault()
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("GetConfig() did not return the stored config")
	}
}

func TestReloadConfig_MissingFileUsesDefaults(t *testing.T) {
	defer resetSingleton()
	resetSingleton()

	cfg, err := ReloadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
}

func TestReloadConfig(t *testing.T) {
	defer resetSingleton()
	resetSingleton()

	SetConfig(NewDefault())
	path := writeConfig(t, "telemetry:\n  logging:\n    level: debug\n")

	cfg, err := ReloadConfig(path)
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg != GetConfig() {
		t.Error("ReloadConfig should replace the global config")
	}
	if GetConfig().Telemetry.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", GetConfig().Telemetry.Logging.Level)
	}

	bad := writeConfig(t, "telemetry:\n  logging:\n    level: nope\n")
	before := GetConfig()
	if _, err := ReloadConfig(bad); err == nil {
		t.Fatal("expected reload error")
	}
	if GetConfig() != before {
		t.Error("failed reload replaced the global config")
	}
}
