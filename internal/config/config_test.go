package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User.ID != "default" {
		t.Errorf("user id = %q", cfg.User.ID)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.UI.StopwatchTickMs != 100 {
		t.Errorf("tick = %d", cfg.UI.StopwatchTickMs)
	}
	if cfg.Database.Path == "" {
		t.Error("empty database path")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("user:\n  id: alice\nui:\n  stopwatch_tick_ms: 250\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User.ID != "alice" {
		t.Errorf("user id = %q", cfg.User.ID)
	}
	if cfg.UI.StopwatchTickMs != 250 {
		t.Errorf("tick = %d", cfg.UI.StopwatchTickMs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ui:\n  stopwatch_tick_ms: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("negative tick accepted")
	}

	if err := os.WriteFile(path, []byte("user:\n  id: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("empty user id accepted")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file accepted")
	}
}
