// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/route-tour/pkg/logging"
	"github.com/JaimeStill/route-tour/pkg/metrics"
	"github.com/JaimeStill/route-tour/pkg/middleware"
	"github.com/JaimeStill/route-tour/pkg/reporter"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"

	// EnvServiceShutdownTimeout overrides the service shutdown timeout.
	EnvServiceShutdownTimeout = "SERVICE_SHUTDOWN_TIMEOUT"
)

var loggingEnv = &logging.Env{
	Level:  "LOGGING_LEVEL",
	Format: "LOGGING_FORMAT",
	Output: "LOGGING_OUTPUT",
}

var reporterEnv = &reporter.Env{
	Log:         "REPORTER_LOG",
	Response:    "REPORTER_RESPONSE",
	OpsInterval: "REPORTER_OPS_INTERVAL",
}

var metricsEnv = &metrics.Env{
	Enabled:   "METRICS_ENABLED",
	Path:      "METRICS_PATH",
	Namespace: "METRICS_NAMESPACE",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CORS_ENABLED",
	Origins:          "CORS_ORIGINS",
	AllowedMethods:   "CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CORS_ALLOWED_HEADERS",
	AllowCredentials: "CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CORS_MAX_AGE",
}

// Config represents the root service configuration.
type Config struct {
	Version         string                `toml:"version"`
	Server          ServerConfig          `toml:"server"`
	Logging         logging.Config        `toml:"logging"`
	Reporter        reporter.Config       `toml:"reporter"`
	Cookies         CookiesConfig         `toml:"cookies"`
	Payload         PayloadConfig         `toml:"payload"`
	Static          StaticConfig          `toml:"static"`
	Router          RouterConfig          `toml:"router"`
	Metrics         metrics.Config        `toml:"metrics"`
	CORS            middleware.CORSConfig `toml:"cors"`
	ShutdownTimeout string                `toml:"shutdown_timeout"`
}

// ShutdownTimeoutDuration parses and returns the shutdown timeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Env returns the overlay environment name.
func (c *Config) Env() string {
	return os.Getenv(EnvServiceEnv)
}

// Load reads the configuration file at path (BaseConfigFile when empty),
// applies the environment-specific overlay found next to it, and finalizes
// the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Reporter.Finalize(reporterEnv); err != nil {
		return fmt.Errorf("reporter: %w", err)
	}
	if err := c.Cookies.Finalize(); err != nil {
		return fmt.Errorf("cookies: %w", err)
	}
	if err := c.Payload.Finalize(); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	if err := c.Static.Finalize(); err != nil {
		return fmt.Errorf("static: %w", err)
	}
	if err := c.Router.Finalize(); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	if err := c.Metrics.Finalize(metricsEnv); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Reporter.Merge(&overlay.Reporter)
	c.Cookies.Merge(&overlay.Cookies)
	c.Payload.Merge(&overlay.Payload)
	c.Static.Merge(&overlay.Static)
	c.Router.Merge(&overlay.Router)
	c.Metrics.Merge(&overlay.Metrics)
	c.CORS.Merge(&overlay.CORS)
}

func (c *Config) loadDefaults() {
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvServiceShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
