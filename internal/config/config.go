// Package config loads and persists the archivum server configuration.
//
// Configuration lives in a single YAML file resolved by FindConfigPath.
// A missing file is not an error: the server runs on defaults and the
// file only needs to exist once an operator wants to change something.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"archivum/internal/layout"
)

const defaultFetchConcurrency = 4

// Load resolves the config path, parses the file, and fills defaults.
// It returns the loaded config and the path it came from; the path is
// empty when no file was found and defaults are in effect.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// LoadFromPath parses the config file at path and fills defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{
		Log: LogConfig{Requests: true},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero-valued fields in place. Layout defaults are
// written out explicitly so a saved config documents the real tuning.
func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadHeaderTimeout <= 0 {
		cfg.Server.ReadHeaderTimeout = Duration(5 * time.Second)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "./archivum.db"
	}

	if cfg.Layout.MaxTicks <= 0 {
		cfg.Layout.MaxTicks = layout.DefaultMaxTicks
	}
	if cfg.Layout.TickInterval <= 0 {
		cfg.Layout.TickInterval = Duration(layout.DefaultTickInterval)
	}
	if cfg.Layout.PaddingFactor <= 0 {
		cfg.Layout.PaddingFactor = layout.DefaultPaddingFactor
	}
	if cfg.Layout.DampingFactor <= 0 {
		cfg.Layout.DampingFactor = layout.DefaultDampingFactor
	}
	if cfg.Layout.SeedSpacing <= 0 {
		cfg.Layout.SeedSpacing = layout.DefaultSeedSpacing
	}

	if cfg.Ingest.FetchConcurrency <= 0 {
		cfg.Ingest.FetchConcurrency = defaultFetchConcurrency
	}
}
