package server_test

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/internal/lifecycle"
	"github.com/JaimeStill/route-tour/internal/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "localhost",
		Port:            port,
		ReadTimeout:     "5s",
		WriteTimeout:    "5s",
		ShutdownTimeout: "5s",
	}
}

func TestNew(t *testing.T) {
	sys := server.New(testConfig(8080), http.NotFoundHandler(), testLogger())
	if sys == nil {
		t.Fatal("New() returned nil")
	}
	if sys.Addr() != "localhost:8080" {
		t.Errorf("Addr() = %q, want %q", sys.Addr(), "localhost:8080")
	}
}

func TestStart_ServesAndShutsDown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("test response"))
	})

	sys := server.New(testConfig(0), handler, testLogger())
	lc := lifecycle.New()

	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	resp, err := http.Get("http://" + sys.Addr() + "/")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(body) != "test response" {
		t.Errorf("body = %q, want %q", body, "test response")
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if _, err := http.Get("http://" + sys.Addr() + "/"); err == nil {
		t.Error("request after shutdown succeeded, want error")
	}
}

func TestStart_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	cfg := testConfig(port)
	cfg.Host = "127.0.0.1"

	sys := server.New(cfg, http.NotFoundHandler(), testLogger())
	if err := sys.Start(lifecycle.New()); err == nil {
		t.Error("Start() on a bound port error = nil, want error")
	}
}
