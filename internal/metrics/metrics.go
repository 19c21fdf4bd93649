// Package metrics owns the Prometheus registry of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tasktracker"

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeFailure = "failure"
)

// Metrics groups the collectors updated by the store and its cache. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	invalidations prometheus.Counter
}

// New creates a registry with Go and process collectors plus the service
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Task store operations by operation, outcome and failure kind.",
		}, []string{"operation", "outcome", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of task store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Listing cache lookups by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Listing cache invalidations.",
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.cacheLookups, m.invalidations)
	return m
}

// ObserveOperation records one store operation. kind is empty on success.
func (m *Metrics) ObserveOperation(op, kind string, started time.Time) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if kind != "" {
		outcome = OutcomeFailure
	}
	m.operations.WithLabelValues(op, outcome, kind).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) CacheInvalidated() {
	if m != nil {
		m.invalidations.Inc()
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
