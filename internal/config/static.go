package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// EnvStaticDir overrides the on-disk public directory.
	EnvStaticDir = "STATIC_DIR"
	// EnvStaticShowHidden enables serving dot-prefixed files.
	EnvStaticShowHidden = "STATIC_SHOW_HIDDEN"
)

// StaticConfig contains static file serving configuration.
// An empty Dir serves the public assets embedded in the binary.
type StaticConfig struct {
	Dir        string `toml:"dir"`
	ShowHidden bool   `toml:"show_hidden"`
}

// Finalize loads environment overrides and validates the static configuration.
func (c *StaticConfig) Finalize() error {
	if v := os.Getenv(EnvStaticDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvStaticShowHidden); v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStaticShowHidden, err)
		}
		c.ShowHidden = show
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *StaticConfig) Merge(overlay *StaticConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.ShowHidden {
		c.ShowHidden = true
	}
}

func (c *StaticConfig) validate() error {
	if c.Dir == "" {
		return nil
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("invalid dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("dir %s is not a directory", c.Dir)
	}
	return nil
}
