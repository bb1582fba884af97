package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Schema != CurrentConfigSchema {
		t.Errorf("Schema = %d, want %d", cfg.Schema, CurrentConfigSchema)
	}

	home, _ := os.UserHomeDir()
	expectedDir := filepath.Join(home, "dust")
	if cfg.DataDir != expectedDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, expectedDir)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
}

func TestConfigScriptsDir(t *testing.T) {
	cfg := &Config{DataDir: "/home/we/dust"}
	if cfg.ScriptsDir() != "/home/we/dust/scripts" {
		t.Errorf("ScriptsDir() = %q, want %q", cfg.ScriptsDir(), "/home/we/dust/scripts")
	}
}

func TestConfigStatePathsWithXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	cfg := &Config{}

	if got, want := cfg.SessionPath(), "/tmp/xdg-config/maiden/session.db"; got != want {
		t.Errorf("SessionPath() = %q, want %q", got, want)
	}
	if got, want := cfg.LogPath(), "/tmp/xdg-config/maiden/maiden.log"; got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	t.Setenv("MAIDEN_DATA_DIR", "")
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"schema": 1, "data_dir": "~/norns/dust", "server": "http://norns.local:5000"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "norns/dust"); cfg.DataDir != want {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, want)
	}
	if cfg.Server != "http://norns.local:5000" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MAIDEN_DATA_DIR", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != DefaultConfig().DataDir {
		t.Errorf("DataDir = %q, want default", cfg.DataDir)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MAIDEN_DATA_DIR", "/srv/dust")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/srv/dust" {
		t.Errorf("DataDir = %q, want /srv/dust", cfg.DataDir)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
