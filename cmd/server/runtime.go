package main

import (
	"log/slog"

	"github.com/JaimeStill/route-tour/internal/config"
	"github.com/JaimeStill/route-tour/internal/lifecycle"
	"github.com/JaimeStill/route-tour/pkg/logging"
	"github.com/JaimeStill/route-tour/pkg/metrics"
	"github.com/JaimeStill/route-tour/pkg/reporter"
)

// Runtime holds the infrastructure shared by every subsystem.
type Runtime struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Reporter  *reporter.Reporter
	Metrics   *metrics.Collector
}

// NewRuntime creates the logger, event reporter and, when enabled, the metrics collector.
func NewRuntime(cfg *config.Config) *Runtime {
	logger := logging.New(&cfg.Logging)

	r := &Runtime{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Reporter:  reporter.New(logger, &cfg.Reporter),
	}

	if cfg.Metrics.IsEnabled() {
		r.Metrics = metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithBuckets(cfg.Metrics.Buckets),
		)
	}

	return r
}

// Start runs the ops reporter until shutdown.
func (r *Runtime) Start() {
	done := make(chan struct{})

	r.Lifecycle.OnStartup(func() {
		go func() {
			defer close(done)
			r.Reporter.Run(r.Lifecycle.Context())
		}()
	})

	r.Lifecycle.OnShutdown(func() {
		<-r.Lifecycle.Context().Done()
		<-done
		r.Logger.Info("reporter stopped")
	})
}
