// Package middleware provides ready-made interceptors for the dispatch
// router: Prometheus metrics and OpenTelemetry tracing.
package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dispatchkit/dispatchkit/pkg/dispatch"
)

// MetricsConfig configures the Prometheus metrics interceptor.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "dispatchkit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics interceptor.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) { c.ConstLabels = labels }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) { c.Registry = registry }
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "dispatchkit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for the dispatch path.
type metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchErrors   *prometheus.CounterVec
}

var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of dispatched actions",
			ConstLabels: config.ConstLabels,
		}, []string{"action", "status"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"action"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of dispatch errors",
			ConstLabels: config.ConstLabels,
		}, []string{"action", "error_type"}),
	}
}

// Prometheus creates an interceptor that records dispatch counts, durations,
// and error categories. Register it like any other interceptor and include
// it in the chain of the actions to observe.
//
// The action's registered path is used as the metric label, never the raw
// request path, to keep label cardinality bounded.
//
// Example:
//
//	r.AddInterceptor("metrics", middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	))
func Prometheus(opts ...MetricsOption) dispatch.Interceptor {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(inv *dispatch.Invocation) (any, error) {
		action := inv.Action().Path()

		start := time.Now()
		res, err := inv.Proceed()
		m.dispatchDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.dispatchErrors.WithLabelValues(action, categorizeError(err)).Inc()
		}
		m.dispatchesTotal.WithLabelValues(action, status).Inc()

		return res, err
	}
}

// categorizeError maps an error to a low-cardinality label value.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, dispatch.ErrNotFound):
		return "not_found"
	case errors.Is(err, dispatch.ErrDuplicate):
		return "conflict"
	default:
		return "internal"
	}
}
