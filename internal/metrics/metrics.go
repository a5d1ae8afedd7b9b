// Package metrics provides the centralized Prometheus registry for the
// walk-forward analysis engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	AnalysesStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "analyses_started_total",
		Help:      "Total number of walk-forward analyses started",
	})
	AnalysesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "analyses_completed_total",
		Help:      "Total number of walk-forward analyses completed successfully",
	})
	AnalysesAbortedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "analyses_aborted_total",
		Help:      "Total number of walk-forward analyses cancelled by the caller",
	})
	AnalysesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "analyses_failed_total",
		Help:      "Total number of walk-forward analyses failed by evaluator errors",
	})
	WindowsEvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "windows_evaluated_total",
		Help:      "Total number of windows that passed the minimum-trade floors",
	})
	WindowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "windows_skipped_total",
		Help:      "Total number of windows skipped for insufficient trades",
	})
	ParameterTestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "walkforward",
		Name:      "parameter_tests_total",
		Help:      "Total number of candidate parameter sets evaluated",
	})
)

// Histogram metrics
var (
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "walkforward",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of walk-forward analysis runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(AnalysesStartedTotal)
		registry.MustRegister(AnalysesCompletedTotal)
		registry.MustRegister(AnalysesAbortedTotal)
		registry.MustRegister(AnalysesFailedTotal)
		registry.MustRegister(WindowsEvaluatedTotal)
		registry.MustRegister(WindowsSkippedTotal)
		registry.MustRegister(ParameterTestsTotal)
		registry.MustRegister(AnalysisDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
