// Package metrics provides Prometheus metrics for the todo service.
package metrics

import (
	"context"
	"net/http"

	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/jobs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "todo"
)

// Autoclose run results used as the result label.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics holds every collector, registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration *prometheus.HistogramVec

	// AutoCloseRunsTotal counts scheduler runs by result.
	AutoCloseRunsTotal *prometheus.CounterVec

	// AutoCloseTasksClosed counts tasks closed by auto-close runs.
	AutoCloseTasksClosed prometheus.Counter

	// AutoCloseRunDuration tracks auto-close run latency.
	AutoCloseRunDuration prometheus.Histogram

	// EventsTotal counts published domain events by type.
	EventsTotal *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		AutoCloseRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "autoclose",
				Name:      "runs_total",
				Help:      "Total auto-close runs by result",
			},
			[]string{"result"},
		),
		AutoCloseTasksClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "autoclose",
				Name:      "tasks_closed_total",
				Help:      "Total tasks marked done by auto-close",
			},
		),
		AutoCloseRunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "autoclose",
				Name:      "run_duration_seconds",
				Help:      "Auto-close run latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "projects",
				Name:      "events_total",
				Help:      "Total project and task events by type",
			},
			[]string{"type"},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveAutoClose records one scheduler run. It is meant to be passed to
// jobs.Scheduler.SetObserver.
func (m *Metrics) ObserveAutoClose(result jobs.RunResult) {
	status := ResultSuccess
	if result.Err != nil {
		status = ResultError
	}
	m.AutoCloseRunsTotal.WithLabelValues(status).Inc()
	m.AutoCloseTasksClosed.Add(float64(result.Closed))
	m.AutoCloseRunDuration.Observe(result.Duration.Seconds())
}

// HandleEvent counts the event by type. It makes Metrics an
// events.EventHandler.
func (m *Metrics) HandleEvent(_ context.Context, event *events.Event) error {
	m.EventsTotal.WithLabelValues(event.Type).Inc()
	return nil
}
