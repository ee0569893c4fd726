// Package metrics holds the Prometheus instruments for the pipeline
// and its collaborators.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every instrument the service records. Construct one
// per process with NewMetrics and share it through injection; tests
// pass their own registry.
type Metrics struct {
	// Pipeline metrics
	PipelineRuns        *prometheus.CounterVec
	PipelineTransitions *prometheus.CounterVec
	PipelineDuration    *prometheus.HistogramVec

	// Cache metrics
	CacheOperations *prometheus.CounterVec

	// Rate limit metrics
	RateLimitDecisions *prometheus.CounterVec

	// Stage metrics
	GenerationRequests *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	EnrichmentLookups  *prometheus.CounterVec
	EnrichmentDuration prometheus.Histogram
}

// NewMetrics registers all instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealforge_pipeline_runs_total",
				Help: "Pipeline runs by terminal status",
			},
			[]string{"status"},
		),
		PipelineTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealforge_pipeline_transitions_total",
				Help: "Pipeline state transitions",
			},
			[]string{"state"},
		),
		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mealforge_pipeline_duration_seconds",
				Help:    "Pipeline run duration by terminal status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		CacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealforge_cache_operations_total",
				Help: "Cache operations by tier, operation, and outcome",
			},
			[]string{"tier", "op", "outcome"},
		),
		RateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealforge_rate_limit_decisions_total",
				Help: "Rate limit decisions by outcome",
			},
			[]string{"outcome"},
		),
		GenerationRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealforge_generation_requests_total",
				Help: "Generation provider calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealforge_generation_duration_seconds",
				Help:    "Generation provider call duration",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		EnrichmentLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealforge_enrichment_lookups_total",
				Help: "Nutrition lookups by outcome",
			},
			[]string{"outcome"},
		),
		EnrichmentDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealforge_enrichment_duration_seconds",
				Help:    "Enrichment stage duration per pipeline run",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObservePipeline records one finished run.
func (m *Metrics) ObservePipeline(status string, elapsed time.Duration) {
	status = strings.ToLower(status)
	m.PipelineRuns.WithLabelValues(status).Inc()
	m.PipelineDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// NewTestMetrics returns instruments bound to a throwaway registry.
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
