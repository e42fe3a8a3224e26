// Package metrics exposes prometheus collectors fed by pipeline events.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/route-tour/pkg/pipeline"
)

// unmatched labels responses that did not match a route.
const unmatched = "unmatched"

type options struct {
	namespace string
	buckets   []float64
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithBuckets sets the response duration histogram buckets. Empty keeps
// the prometheus defaults.
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// Collector records response and log events.
type Collector struct {
	registry  *prometheus.Registry
	responses *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	logs      *prometheus.CounterVec
}

// New creates a Collector with its own registry, which also carries the Go
// runtime and process collectors.
func New(opts ...Option) *Collector {
	o := options{
		namespace: "route_tour",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "responses_total",
			Help:      "Total number of responses sent",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "response_duration_seconds",
			Help:      "Time from request receipt to response transmission",
			Buckets:   o.buckets,
		}, []string{"method", "route"}),
		logs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "log_events_total",
			Help:      "Total number of log events by tag",
		}, []string{"tag"}),
	}
}

// Observe implements pipeline.Observer.
func (c *Collector) Observe(e pipeline.Event) {
	switch e.Type {
	case pipeline.EventResponse:
		if e.Response == nil {
			return
		}
		route := e.Response.Route
		if route == "" {
			route = unmatched
		}
		c.responses.WithLabelValues(e.Response.Method, route, strconv.Itoa(e.Response.Status)).Inc()
		c.duration.WithLabelValues(e.Response.Method, route).Observe(e.Response.Duration.Seconds())
	case pipeline.EventLog:
		for _, tag := range e.Tags {
			c.logs.WithLabelValues(tag).Inc()
		}
	}
}

// Registry returns the registry the collectors are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
