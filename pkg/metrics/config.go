package metrics

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Env maps environment variable names for metrics configuration.
type Env struct {
	Enabled   string
	Path      string
	Namespace string
}

// Config controls the prometheus endpoint.
type Config struct {
	Enabled   *bool     `toml:"enabled"`
	Path      string    `toml:"path"`
	Namespace string    `toml:"namespace"`
	Buckets   []float64 `toml:"buckets"`
}

// IsEnabled reports whether metrics are collected and exposed.
func (c *Config) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Namespace != "" {
		c.Namespace = overlay.Namespace
	}
	if overlay.Buckets != nil {
		c.Buckets = overlay.Buckets
	}
}

func (c *Config) loadDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Namespace == "" {
		c.Namespace = "route_tour"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Enabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = &enabled
		}
	}
	if v := os.Getenv(env.Path); v != "" {
		c.Path = v
	}
	if v := os.Getenv(env.Namespace); v != "" {
		c.Namespace = v
	}
}

func (c *Config) validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must begin with '/': %s", c.Path)
	}
	for i, b := range c.Buckets {
		if b <= 0 || (i > 0 && b <= c.Buckets[i-1]) {
			return fmt.Errorf("buckets must be positive and increasing: %v", c.Buckets)
		}
	}
	return nil
}
