// Package reporter turns pipeline events into structured log records. It
// reports log and response events filtered by tag, and periodic ops events
// describing the process.
package reporter

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/docker/go-units"

	"github.com/JaimeStill/route-tour/pkg/pipeline"
)

// Reporter writes selected events to a logger.
type Reporter struct {
	logger   *slog.Logger
	log      []string
	response []string
	interval time.Duration
	started  time.Time
}

// New creates a Reporter from a finalized configuration.
func New(logger *slog.Logger, cfg *Config) *Reporter {
	return &Reporter{
		logger:   logger.With("system", "reporter"),
		log:      cfg.Log,
		response: cfg.Response,
		interval: cfg.OpsIntervalDuration(),
		started:  time.Now(),
	}
}

// Observe implements pipeline.Observer.
func (r *Reporter) Observe(e pipeline.Event) {
	switch e.Type {
	case pipeline.EventLog:
		if !matches(r.log, e.Tags) {
			return
		}
		attrs := []any{"tags", e.Tags, "data", e.Data}
		if e.RequestID != "" {
			attrs = append(attrs, "request_id", e.RequestID)
		}
		r.logger.Log(context.Background(), level(e.Tags), "log", attrs...)

	case pipeline.EventResponse:
		if !matches(r.response, e.Tags) || e.Response == nil {
			return
		}
		r.logger.Info("response",
			"request_id", e.RequestID,
			"method", e.Response.Method,
			"path", e.Response.Path,
			"route", e.Response.Route,
			"status", e.Response.Status,
			"duration", e.Response.Duration.String(),
		)
	}
}

// OpsEvent is a snapshot of process health.
type OpsEvent struct {
	Uptime     time.Duration
	Goroutines int
	HeapAlloc  uint64
	Sys        uint64
	NumGC      uint32
}

// Ops captures the current process state.
func (r *Reporter) Ops() OpsEvent {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return OpsEvent{
		Uptime:     time.Since(r.started),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// Run reports ops events every interval until ctx is cancelled. It returns
// immediately when ops reporting is disabled.
func (r *Reporter) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ops := r.Ops()
			r.logger.Info("ops",
				"uptime", ops.Uptime.Round(time.Second).String(),
				"goroutines", ops.Goroutines,
				"heap", units.HumanSize(float64(ops.HeapAlloc)),
				"sys", units.HumanSize(float64(ops.Sys)),
				"gc", ops.NumGC,
			)
		}
	}
}

// matches reports whether an event with tags passes filter. Response events
// carry the tags of the route that served them; untagged events only pass the
// wildcard.
func matches(filter, tags []string) bool {
	if slices.Contains(filter, Wildcard) {
		return true
	}
	for _, tag := range tags {
		if slices.Contains(filter, tag) {
			return true
		}
	}
	return false
}

func level(tags []string) slog.Level {
	switch {
	case slices.Contains(tags, "error"):
		return slog.LevelError
	case slices.Contains(tags, "warn"), slices.Contains(tags, "warning"):
		return slog.LevelWarn
	case slices.Contains(tags, "debug"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
