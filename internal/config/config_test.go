package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Sync.Interval != defaults.Sync.Interval {
		t.Errorf("Sync.Interval = %v, want default %v", cfg.Sync.Interval, defaults.Sync.Interval)
	}
	if cfg.Probe.URL != defaults.Probe.URL {
		t.Errorf("Probe.URL = %q, want default %q", cfg.Probe.URL, defaults.Probe.URL)
	}
	if cfg.Dashboard.Port != defaults.Dashboard.Port {
		t.Errorf("Dashboard.Port = %d, want default %d", cfg.Dashboard.Port, defaults.Dashboard.Port)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
db_path: /tmp/custom.db
remote:
  base_url: https://sync.example.net
  token: secret-123
sync:
  interval: 10m
dashboard:
  enabled: true
  port: 9100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Remote.BaseURL != "https://sync.example.net" {
		t.Errorf("Remote.BaseURL = %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.Token != "secret-123" {
		t.Errorf("Remote.Token = %q", cfg.Remote.Token)
	}
	if cfg.Sync.Interval != 10*time.Minute {
		t.Errorf("Sync.Interval = %v, want 10m", cfg.Sync.Interval)
	}
	if !cfg.Dashboard.Enabled || cfg.Dashboard.Port != 9100 {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}

	// Unset keys keep their defaults.
	if cfg.Probe.URL != DefaultConfig().Probe.URL {
		t.Errorf("Probe.URL = %q, want default", cfg.Probe.URL)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasker", "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written default: %v", err)
	}
	if cfg.Sync.Interval != DefaultConfig().Sync.Interval {
		t.Errorf("written default round-trip: Sync.Interval = %v", cfg.Sync.Interval)
	}

	if err := WriteDefault(path); err == nil {
		t.Error("WriteDefault overwrote an existing file")
	}
}
