package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvCookiesPassword overrides the cookie sealing password.
	EnvCookiesPassword = "COOKIES_PASSWORD"

	// EnvCookiesTTL overrides the sealed cookie lifetime.
	EnvCookiesTTL = "COOKIES_TTL"

	// EnvCookiesSecure overrides the Secure attribute of sealed cookies.
	EnvCookiesSecure = "COOKIES_SECURE"

	// EnvCookiesSameSite overrides the SameSite attribute of sealed cookies.
	EnvCookiesSameSite = "COOKIES_SAME_SITE"
)

// MinPasswordLength is the minimum length of the cookie sealing password.
const MinPasswordLength = 32

// CookiesConfig contains cookie state configuration.
type CookiesConfig struct {
	Password string `toml:"password"`
	TTL      string `toml:"ttl"`
	Secure   *bool  `toml:"secure"`
	SameSite string `toml:"same_site"`
}

// TTLDuration parses and returns the cookie lifetime as a time.Duration.
func (c *CookiesConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// IsSecure reports whether sealed cookies carry the Secure attribute.
func (c *CookiesConfig) IsSecure() bool {
	return c.Secure == nil || *c.Secure
}

// SameSiteMode maps the configured SameSite value to its http.SameSite constant.
func (c *CookiesConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteDefaultMode
	}
}

// Finalize applies defaults, loads environment overrides, and validates the cookie configuration.
func (c *CookiesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *CookiesConfig) Merge(overlay *CookiesConfig) {
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.Secure != nil {
		c.Secure = overlay.Secure
	}
	if overlay.SameSite != "" {
		c.SameSite = overlay.SameSite
	}
}

func (c *CookiesConfig) loadDefaults() {
	if c.TTL == "" {
		c.TTL = "1h"
	}
	if c.SameSite == "" {
		c.SameSite = "strict"
	}
}

func (c *CookiesConfig) loadEnv() {
	if v := os.Getenv(EnvCookiesPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvCookiesTTL); v != "" {
		c.TTL = v
	}
	if v := os.Getenv(EnvCookiesSecure); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Secure = &b
		}
	}
	if v := os.Getenv(EnvCookiesSameSite); v != "" {
		c.SameSite = v
	}
}

func (c *CookiesConfig) validate() error {
	if len(c.Password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if _, err := time.ParseDuration(c.TTL); err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	switch strings.ToLower(c.SameSite) {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("invalid same_site: %s", c.SameSite)
	}
	return nil
}
