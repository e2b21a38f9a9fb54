package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath overrides the config search path when set.
	EnvConfigPath = "ARCHIVUM_CONFIG"

	// ConfigFileName is the file looked up in the working directory.
	ConfigFileName = "archivum.yaml"

	// ConfigDirName is the directory used under XDG config roots.
	ConfigDirName = "archivum"
)

// FindConfigPath returns the first config file that exists, searching:
//
//  1. $ARCHIVUM_CONFIG
//  2. ./archivum.yaml
//  3. $XDG_CONFIG_HOME/archivum/config.yaml
//  4. ~/.config/archivum/config.yaml
//  5. /etc/archivum/config.yaml
//
// It returns an empty string when nothing is found, which callers treat
// as "run on defaults".
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	if fileExists(ConfigFileName) {
		return ConfigFileName
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		path := filepath.Join(xdg, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	path := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(path) {
		return path
	}

	return ""
}

// DefaultConfigPath is where Save writes when no config file exists yet.
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName, "config.yaml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", ConfigDirName, "config.yaml"), nil
}

// EnsureConfigDir creates the parent directory for path if needed.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
