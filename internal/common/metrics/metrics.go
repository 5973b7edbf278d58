// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compair_cache_lookups_total",
			Help: "Comparison cache lookups by result (hit, miss, expired)",
		},
		[]string{"result"},
	)

	GroundingFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compair_grounding_fetches_total",
			Help: "Per-item grounding fetches by outcome (ok, timeout, error, empty)",
		},
		[]string{"outcome"},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compair_generation_attempts_total",
			Help: "Generative model attempts by outcome",
		},
		[]string{"outcome"},
	)

	Comparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compair_comparisons_total",
			Help: "Completed comparisons by outcome (comparable, not_comparable, failed)",
		},
		[]string{"outcome"},
	)

	InflightJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compair_inflight_joins_total",
			Help: "Requests that joined an identical in-flight comparison instead of generating",
		},
	)

	ComparisonDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compair_comparison_duration_seconds",
			Help:    "End-to-end comparison duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"outcome"},
	)

	Degradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compair_degradations_total",
			Help: "Upstream failures absorbed without failing the request, by error code",
		},
		[]string{"code"},
	)

	Followups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compair_followups_total",
			Help: "Follow-up questions by outcome",
		},
		[]string{"outcome"},
	)
)
