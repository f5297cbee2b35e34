package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "citadel").
	Namespace string

	// Subsystem is the metrics subsystem (default: "server").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for exchange duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the exchange duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "citadel",
		Subsystem: "server",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the runtime's Prometheus collectors. A nil *Metrics is a
// valid no-op collector, so the runtime works unmetered.
type Metrics struct {
	acceptedTotal      *prometheus.CounterVec
	activeConnections  prometheus.Gauge
	exchangeDuration   prometheus.Histogram
	handlerErrorsTotal *prometheus.CounterVec
	panicsTotal        prometheus.Counter
	workerTerminations prometheus.Counter
}

// NewMetrics registers the runtime collectors and returns the handle the
// workers record through.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		acceptedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connections_accepted_total",
			Help:        "Total connections accepted, by worker",
			ConstLabels: config.ConstLabels,
		}, []string{"worker"}),

		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connections_active",
			Help:        "Connections currently being driven",
			ConstLabels: config.ConstLabels,
		}),

		exchangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "exchange_duration_seconds",
			Help:        "Duration of a connection's full exchange in seconds",
			Buckets:     config.Buckets,
			ConstLabels: config.ConstLabels,
		}),

		handlerErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_errors_total",
			Help:        "Handler failures rendered into responses, by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		panicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "panics_recovered_total",
			Help:        "Panics recovered inside worker-owned tasks",
			ConstLabels: config.ConstLabels,
		}),

		workerTerminations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "worker_terminations_total",
			Help:        "Workers that left the accept loop terminally",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ConnAccepted records an accepted connection for a worker.
func (m *Metrics) ConnAccepted(worker int) {
	if m == nil {
		return
	}
	m.acceptedTotal.WithLabelValues(strconv.Itoa(worker)).Inc()
}

// ExchangeStarted marks a connection exchange as in flight.
func (m *Metrics) ExchangeStarted() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

// ExchangeFinished marks a connection exchange as done.
func (m *Metrics) ExchangeFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
	m.exchangeDuration.Observe(d.Seconds())
}

// HandlerError records a handler failure rendered with the given status.
func (m *Metrics) HandlerError(status int) {
	if m == nil {
		return
	}
	m.handlerErrorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Panic records a recovered task panic.
func (m *Metrics) Panic() {
	if m == nil {
		return
	}
	m.panicsTotal.Inc()
}

// WorkerTerminated records a worker leaving its accept loop.
func (m *Metrics) WorkerTerminated() {
	if m == nil {
		return
	}
	m.workerTerminations.Inc()
}
