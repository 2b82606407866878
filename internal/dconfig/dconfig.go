// Package dconfig loads the daemon's own bootstrap configuration: listen
// address, catalog path, log level, and shutdown grace window. This is
// distinct from the device catalog itself (internal/catalog), which is a
// separate JSON document this config merely points at.
//
// Load follows the shape of aldrin-isaac-newtron's pkg/settings, swapped
// from JSON to YAML since this is an operator-edited daemon config rather
// than a CLI's own preferences file.
package dconfig

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither -config nor SCALEBRIDGE_CONFIG is set.
const DefaultPath = "/etc/scalebridge/daemon.yaml"

// Config is the daemon's own bootstrap configuration (SPEC_FULL.md §4.8).
type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	CatalogPath     string `yaml:"catalog_path"`
	LogLevel        string `yaml:"log_level"`
	WatchConfig     bool   `yaml:"watch_config"`
	ShutdownGraceMS int    `yaml:"shutdown_grace_ms"`
}

// ShutdownGrace returns ShutdownGraceMS as a time.Duration.
func (c Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMS) * time.Millisecond
}

func defaults() Config {
	return Config{
		ListenAddr:      ":8080",
		CatalogPath:     "/etc/scalebridge/devices.json",
		LogLevel:        "info",
		WatchConfig:     true,
		ShutdownGraceMS: 5000,
	}
}

// Load reads path, falling back to defaults() for a missing file, then
// applies environment-variable overrides on top (SPEC_FULL.md §4.8):
// SCALEBRIDGE_LISTEN_ADDR, SCALEBRIDGE_CATALOG_PATH, SCALEBRIDGE_LOG_LEVEL.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCALEBRIDGE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SCALEBRIDGE_CATALOG_PATH"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("SCALEBRIDGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// ConfigPath resolves the daemon config's own path: -config flag value if
// non-empty, else SCALEBRIDGE_CONFIG, else DefaultPath.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("SCALEBRIDGE_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}
