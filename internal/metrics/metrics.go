// Package metrics exposes Prometheus collectors for the dev server's
// hot-update activity.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the metrics collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "modkit").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for propagation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "modkit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for hot-update activity.
type Metrics struct {
	HotUpdatesTotal     prometheus.Counter
	UpdateRecordsTotal  prometheus.Counter
	FullReloadsTotal    *prometheus.CounterVec
	PrunedModulesTotal  prometheus.Counter
	PropagationDuration prometheus.Histogram
	ConnectedClients    prometheus.Gauge
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		HotUpdatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "hot_updates_total",
			Help:        "Total number of update messages sent to clients",
			ConstLabels: cfg.ConstLabels,
		}),

		UpdateRecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "update_records_total",
			Help:        "Total number of boundary update records sent to clients",
			ConstLabels: cfg.ConstLabels,
		}),

		FullReloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "full_reloads_total",
			Help:        "Total number of full-reload messages, by reason",
			ConstLabels: cfg.ConstLabels,
		}, []string{"reason"}),

		PrunedModulesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "pruned_modules_total",
			Help:        "Total number of modules pruned from the graph",
			ConstLabels: cfg.ConstLabels,
		}),

		PropagationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "propagation_duration_seconds",
			Help:        "Update boundary propagation duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),

		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "connected_clients",
			Help:        "Number of connected HMR websocket clients",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Default returns the process-wide metrics instance, creating it on
// first use with the default registry.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}
