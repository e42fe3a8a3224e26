package main

import (
	"net/http"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/internal/lifecycle"
	"github.com/JaimeStill/route-tour/pkg/routes"
)

// registerRoutes configures the native routes served ahead of the pipeline.
func registerRoutes(r routes.System, runtime *Runtime, cfg *config.Config) {
	r.RegisterRoute(routes.Route{
		Method:      "GET",
		Pattern:     "/healthz",
		Description: "Health check",
		Handler:     handleHealthCheck,
	})

	r.RegisterRoute(routes.Route{
		Method:      "GET",
		Pattern:     "/readyz",
		Description: "Readiness check",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			handleReadinessCheck(w, runtime.Lifecycle)
		},
	})

	if runtime.Metrics != nil {
		r.RegisterRoute(routes.Route{
			Method:      "GET",
			Pattern:     cfg.Metrics.Path,
			Description: "Prometheus metrics",
			Handler:     runtime.Metrics.Handler().ServeHTTP,
		})
	}
}

// handleHealthCheck responds with OK status for health monitoring.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, ready lifecycle.ReadinessChecker) {
	if !ready.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
