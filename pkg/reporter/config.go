package reporter

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Wildcard selects every tag.
const Wildcard = "*"

// Env maps environment variable names for reporter configuration.
type Env struct {
	Log         string
	Response    string
	OpsInterval string
}

// Config selects which events are reported. Log and Response hold tag
// filters; an empty filter disables the event type.
type Config struct {
	Log         []string `toml:"log"`
	Response    []string `toml:"response"`
	OpsInterval string   `toml:"ops_interval"`
}

// OpsIntervalDuration parses the ops interval. Zero disables ops events.
func (c *Config) OpsIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.OpsInterval)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Log != nil {
		c.Log = overlay.Log
	}
	if overlay.Response != nil {
		c.Response = overlay.Response
	}
	if overlay.OpsInterval != "" {
		c.OpsInterval = overlay.OpsInterval
	}
}

func (c *Config) loadDefaults() {
	if c.Log == nil {
		c.Log = []string{Wildcard}
	}
	if c.Response == nil {
		c.Response = []string{Wildcard}
	}
	if c.OpsInterval == "" {
		c.OpsInterval = "0s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Log); v != "" {
		c.Log = splitTags(v)
	}
	if v := os.Getenv(env.Response); v != "" {
		c.Response = splitTags(v)
	}
	if v := os.Getenv(env.OpsInterval); v != "" {
		c.OpsInterval = v
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.OpsInterval)
	if err != nil {
		return fmt.Errorf("invalid ops_interval: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("ops_interval must not be negative")
	}
	return nil
}

func splitTags(v string) []string {
	parts := strings.Split(v, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
