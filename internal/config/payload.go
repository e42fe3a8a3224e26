package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"

	"github.com/JaimeStill/route-tour/pkg/payload"
)

// EnvPayloadMaxBytes overrides the maximum accepted request body size.
const EnvPayloadMaxBytes = "PAYLOAD_MAX_BYTES"

// PayloadConfig contains request payload parsing configuration.
type PayloadConfig struct {
	MaxBytes string `toml:"max_bytes"`
}

// MaxBytesValue parses the human-readable MaxBytes value to an int64.
func (c *PayloadConfig) MaxBytesValue() int64 {
	size, _ := units.FromHumanSize(c.MaxBytes)
	return size
}

// Finalize applies defaults, loads environment overrides, and validates the payload configuration.
func (c *PayloadConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *PayloadConfig) Merge(overlay *PayloadConfig) {
	if overlay.MaxBytes != "" {
		c.MaxBytes = overlay.MaxBytes
	}
}

func (c *PayloadConfig) loadDefaults() {
	if c.MaxBytes == "" {
		c.MaxBytes = units.HumanSize(float64(payload.DefaultMaxBytes))
	}
}

func (c *PayloadConfig) loadEnv() {
	if v := os.Getenv(EnvPayloadMaxBytes); v != "" {
		c.MaxBytes = v
	}
}

func (c *PayloadConfig) validate() error {
	size, err := units.FromHumanSize(c.MaxBytes)
	if err != nil {
		return fmt.Errorf("invalid max_bytes: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_bytes must be positive")
	}
	return nil
}
