package config

import (
	"fmt"
	"time"

	"archivum/internal/layout"
)

// Config is the root configuration for the archivum server.
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Layout   LayoutConfig   `yaml:"layout"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP listener.
//
// There is deliberately no write timeout: the event stream and layout
// sockets are long-lived responses that would be killed by one.
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig locates the sqlite archive file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LayoutConfig tunes the collision engine backing layout sessions.
// Zero values fall back to the engine defaults.
type LayoutConfig struct {
	MaxTicks      int      `yaml:"max_ticks"`
	TickInterval  Duration `yaml:"tick_interval"`
	PaddingFactor float64  `yaml:"padding_factor"`
	DampingFactor float64  `yaml:"damping_factor"`
	SeedSpacing   float64  `yaml:"seed_spacing"`
}

// Params converts the section into engine parameters. Unset fields stay
// zero so the engine substitutes its own defaults.
func (l LayoutConfig) Params() layout.Params {
	return layout.Params{
		MaxTicks:      l.MaxTicks,
		TickInterval:  l.TickInterval.Duration(),
		PaddingFactor: l.PaddingFactor,
		DampingFactor: l.DampingFactor,
	}
}

// IngestConfig wires the dataset file and remote manifest sources.
type IngestConfig struct {
	DatasetPath      string   `yaml:"dataset_path"`
	Watch            bool     `yaml:"watch"`
	PollInterval     string   `yaml:"poll_interval"`
	ManifestURLs     []string `yaml:"manifest_urls"`
	FetchConcurrency int      `yaml:"fetch_concurrency"`
}

// AuthConfig guards the destructive API routes. An empty hash disables
// the check, which is only sensible for single-user deployments.
type AuthConfig struct {
	AdminTokenHash string `yaml:"admin_token_hash"`
}

// LogConfig controls request logging.
type LogConfig struct {
	Requests bool `yaml:"requests"`
}

// Duration wraps time.Duration so YAML files can use strings like "33ms".
type Duration time.Duration

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
