package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Schema  int    `json:"schema"`
	DataDir string `json:"data_dir"`
	Editor  string `json:"editor,omitempty"`
	Port    int    `json:"port,omitempty"`
	// Server is the base URL of a remote `maiden serve`. When set the
	// explorer works against it instead of DataDir.
	Server   string `json:"server,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
}

const CurrentConfigSchema = 1

const DefaultPort = 5000

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Schema:   CurrentConfigSchema,
		DataDir:  filepath.Join(home, "dust"),
		Port:     DefaultPort,
		LogLevel: "info",
	}
}

func Load(configPath string) (*Config, error) {
	paths := getConfigPaths(configPath)

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		cfg := DefaultConfig()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		cfg.applyEnv()
		cfg.expandPaths()
		return cfg, nil
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	cfg.expandPaths()
	return cfg, nil
}

func getConfigPaths(explicit string) []string {
	var paths []string

	if explicit != "" {
		paths = append(paths, explicit)
	}

	paths = append(paths, filepath.Join(configHome(), "maiden", "config.json"))

	return paths
}

func configHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func (c *Config) applyEnv() {
	if dir := os.Getenv("MAIDEN_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
}

func (c *Config) expandPaths() {
	home, _ := os.UserHomeDir()

	if len(c.DataDir) > 0 && c.DataDir[0] == '~' {
		c.DataDir = filepath.Join(home, c.DataDir[1:])
	}
}

func (c *Config) ScriptsDir() string {
	return filepath.Join(c.DataDir, "scripts")
}

func (c *Config) StateDir() string {
	return filepath.Join(configHome(), "maiden")
}

func (c *Config) SessionPath() string {
	return filepath.Join(c.StateDir(), "session.db")
}

func (c *Config) LogPath() string {
	return filepath.Join(c.StateDir(), "maiden.log")
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}
