package config_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/pkg/payload"
)

const password = "longrandomvalue32charactersrequired"

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("SERVICE_ENV", "")
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `[cookies]
password = "`+password+`"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Addr() != "localhost:8000" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "localhost:8000")
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("ShutdownTimeoutDuration() = %v, want 30s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Cookies.TTLDuration() != time.Hour {
		t.Errorf("Cookies.TTLDuration() = %v, want 1h", cfg.Cookies.TTLDuration())
	}
	if !cfg.Cookies.IsSecure() {
		t.Error("Cookies.IsSecure() = false, want true")
	}
	if cfg.Cookies.SameSiteMode() != http.SameSiteStrictMode {
		t.Errorf("Cookies.SameSiteMode() = %v, want strict", cfg.Cookies.SameSiteMode())
	}
	if cfg.Payload.MaxBytesValue() != payload.DefaultMaxBytes {
		t.Errorf("Payload.MaxBytesValue() = %d, want %d", cfg.Payload.MaxBytesValue(), payload.DefaultMaxBytes)
	}
	if !cfg.Metrics.IsEnabled() {
		t.Error("Metrics.IsEnabled() = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_WithOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `shutdown_timeout = "10s"

[server]
port = 8000

[cookies]
password = "`+password+`"
`)
	writeConfig(t, dir, "config.test.toml", `shutdown_timeout = "60s"

[server]
port = 9090

[cookies]
secure = false
`)
	t.Setenv("SERVICE_ENV", "test")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() with overlay failed: %v", err)
	}

	if cfg.ShutdownTimeout != "60s" {
		t.Errorf("ShutdownTimeout = %q, want %q", cfg.ShutdownTimeout, "60s")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Cookies.IsSecure() {
		t.Error("Cookies.IsSecure() = true, want false")
	}
}

func TestLoad_MissingOverlayIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `[cookies]
password = "`+password+`"
`)
	t.Setenv("SERVICE_ENV", "missing")

	if _, err := config.Load(path); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `[cookies]
password = "`+password+`"
`)
	t.Setenv("SERVICE_ENV", "")
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("PAYLOAD_MAX_BYTES", "2MB")
	t.Setenv("ROUTER_STRIP_TRAILING_SLASH", "true")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
	if cfg.Payload.MaxBytesValue() != 2*1000*1000 {
		t.Errorf("Payload.MaxBytesValue() = %d, want %d", cfg.Payload.MaxBytesValue(), 2*1000*1000)
	}
	if !cfg.Router.StripTrailingSlash {
		t.Error("Router.StripTrailingSlash = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"short password", `[cookies]
password = "short"
`},
		{"invalid port", `[server]
port = 70000
[cookies]
password = "` + password + `"
`},
		{"invalid max bytes", `[payload]
max_bytes = "lots"
[cookies]
password = "` + password + `"
`},
		{"invalid same site", `[cookies]
password = "` + password + `"
same_site = "sometimes"
`},
		{"invalid toml", `[server`},
	}

	t.Setenv("SERVICE_ENV", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.toml", tt.body)
			if _, err := config.Load(path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "config.toml")); err == nil {
		t.Error("Load() error = nil, want error")
	}
}

func TestStaticConfig_Dir(t *testing.T) {
	dir := t.TempDir()

	cfg := config.StaticConfig{Dir: dir}
	if err := cfg.Finalize(); err != nil {
		t.Errorf("Finalize() error = %v", err)
	}

	file := writeConfig(t, dir, "file.txt", "x")
	cfg = config.StaticConfig{Dir: file}
	if err := cfg.Finalize(); err == nil {
		t.Error("Finalize() with file error = nil, want error")
	}
}

func TestStaticConfig_ShowHidden(t *testing.T) {
	cfg := config.StaticConfig{}
	cfg.Merge(&config.StaticConfig{ShowHidden: true})
	if !cfg.ShowHidden {
		t.Error("ShowHidden = false after overlay, want true")
	}

	t.Setenv(config.EnvStaticShowHidden, "false")
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if cfg.ShowHidden {
		t.Error("ShowHidden = true after env override, want false")
	}

	t.Setenv(config.EnvStaticShowHidden, "sometimes")
	if err := cfg.Finalize(); err == nil {
		t.Error("Finalize() with invalid bool error = nil, want error")
	}
}
