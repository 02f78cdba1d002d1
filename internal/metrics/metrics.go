// Package metrics exposes Prometheus instrumentation for HTTP traffic and
// journal lifecycle events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/tradebook/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers never share
// global collector state
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
	lifecycleEvents *prometheus.CounterVec
}

// New creates the collectors under namespace
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		lifecycleEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_events_total",
				Help:      "Trade, portfolio and user lifecycle events",
			},
			[]string{"type"},
		),
	}
}

// ObserveRequest records a completed HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	labels := []string{route, method, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestCount.WithLabelValues(labels...).Inc()
}

// RecordEvent counts one lifecycle event
func (m *Metrics) RecordEvent(e events.Event) {
	m.lifecycleEvents.WithLabelValues(string(e.Type)).Inc()
}

// SubscribeTo counts every event published on bus until the returned
// function is called
func (m *Metrics) SubscribeTo(bus *events.Bus) func() {
	return bus.SubscribeAll(m.RecordEvent)
}

// Middleware instruments requests by chi route pattern, so path parameters
// do not explode label cardinality
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ObserveRequest(route, r.Method, status, time.Since(start))
	})
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
