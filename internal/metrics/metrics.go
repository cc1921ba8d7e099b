// Package metrics provides Prometheus metrics collection for the feature selector.
// It defines the counters and histograms exposed on the /metrics endpoint of the
// selection server and updated by batch runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the selector.
type Metrics struct {
	// Selector metrics
	Fits              prometheus.Counter   // Successful estimator fits
	FitFailures       prometheus.Counter   // Estimator fits that returned an error
	Transforms        prometheus.Counter   // Completed transforms
	PairwiseDropped   prometheus.Counter   // Columns removed by pairwise reduction
	ThresholdPruned   prometheus.Counter   // Columns removed by the importance threshold
	TransformDuration prometheus.Histogram // Transform wall time

	// Service metrics
	RunsStored   prometheus.Counter     // Selection runs persisted to storage
	HTTPRequests *prometheus.CounterVec // Requests by handler and status code
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Fits: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_fits_total",
			Help: "Total number of successful estimator fits",
		}),
		FitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_fit_failures_total",
			Help: "Total number of estimator fits that failed",
		}),
		Transforms: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_transforms_total",
			Help: "Total number of completed transforms",
		}),
		PairwiseDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_pairwise_dropped_total",
			Help: "Total number of columns removed by pairwise reduction",
		}),
		ThresholdPruned: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_threshold_pruned_total",
			Help: "Total number of columns removed by the importance threshold",
		}),
		TransformDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "selector_transform_duration_seconds",
			Help:    "Duration of selector transforms in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		RunsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "selector_runs_stored_total",
			Help: "Total number of selection runs persisted",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "selector_http_requests_total",
			Help: "Total number of HTTP requests by handler and status code",
		}, []string{"handler", "code"}),
	}
}
