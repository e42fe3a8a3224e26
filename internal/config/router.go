package config

import (
	"os"
	"strconv"
)

// EnvRouterStripTrailingSlash overrides trailing slash handling.
const EnvRouterStripTrailingSlash = "ROUTER_STRIP_TRAILING_SLASH"

// RouterConfig contains request routing configuration.
type RouterConfig struct {
	StripTrailingSlash bool `toml:"strip_trailing_slash"`
}

// Finalize loads environment overrides.
func (c *RouterConfig) Finalize() error {
	if v := os.Getenv(EnvRouterStripTrailingSlash); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StripTrailingSlash = b
		}
	}
	return nil
}

// Merge applies boolean values from overlay configuration.
func (c *RouterConfig) Merge(overlay *RouterConfig) {
	if overlay.StripTrailingSlash {
		c.StripTrailingSlash = true
	}
}
