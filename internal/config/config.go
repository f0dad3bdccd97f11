// Package config resolves the stage3d configuration surface: environment
// overrides for the physics service plus an optional YAML file for the
// server itself.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultServiceURL is the public physics (Rapier) service endpoint used
// when nothing overrides it.
const DefaultServiceURL = "https://rapier.chukai.io"

// DefaultTimeout is the per-request physics service timeout.
const DefaultTimeout = 30 * time.Second

const (
	// DefaultFPS is the keyframe sampling rate used when a bake request
	// does not specify one.
	DefaultFPS = 60

	// DefaultBakeWindow is the window, in seconds, requested from the
	// physics service when a bake has no explicit duration. Exposed as
	// configuration rather than buried in the bridge: there is nothing
	// principled about 10 seconds.
	DefaultBakeWindow = 10.0
)

// ServiceURL returns the physics service base URL. Resolution order:
// RAPIER_SERVICE_URL, then RAPIER_URL, then the public default.
func ServiceURL() string {
	if url := os.Getenv("RAPIER_SERVICE_URL"); url != "" {
		return url
	}
	if url := os.Getenv("RAPIER_URL"); url != "" {
		return url
	}
	return DefaultServiceURL
}

// ServiceTimeout returns the physics service request timeout from
// RAPIER_TIMEOUT (float seconds). Unset, non-numeric or non-positive
// values fall back silently to DefaultTimeout.
func ServiceTimeout() time.Duration {
	raw := os.Getenv("RAPIER_TIMEOUT")
	if raw == "" {
		return DefaultTimeout
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(secs * float64(time.Second))
}

// Physics configures the outbound physics service session.
type Physics struct {
	// ServiceURL overrides the environment/default resolution when set.
	ServiceURL string `yaml:"service_url"`
	// TimeoutSeconds overrides the request timeout when positive.
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// Bake configures bake defaults.
type Bake struct {
	FPS           int     `yaml:"fps"`
	WindowSeconds float64 `yaml:"window_seconds"`
}

// Config is the server configuration file.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// DataDir roots the blob store on disk. Empty keeps scenes in memory.
	DataDir string `yaml:"data_dir"`

	Physics Physics `yaml:"physics"`
	Bake    Bake    `yaml:"bake"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ":8000",
		Bake: Bake{
			FPS:           DefaultFPS,
			WindowSeconds: DefaultBakeWindow,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8000"
	}
	if cfg.Bake.FPS <= 0 {
		cfg.Bake.FPS = DefaultFPS
	}
	if cfg.Bake.WindowSeconds <= 0 {
		cfg.Bake.WindowSeconds = DefaultBakeWindow
	}
	return cfg, nil
}

// ResolveServiceURL applies the file override, then the environment chain.
func (c *Config) ResolveServiceURL() string {
	if c.Physics.ServiceURL != "" {
		return c.Physics.ServiceURL
	}
	return ServiceURL()
}

// ResolveTimeout applies the file override, then the environment chain.
func (c *Config) ResolveTimeout() time.Duration {
	if c.Physics.TimeoutSeconds > 0 {
		return time.Duration(c.Physics.TimeoutSeconds * float64(time.Second))
	}
	return ServiceTimeout()
}
