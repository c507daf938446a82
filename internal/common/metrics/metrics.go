// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuoteRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_runs_total",
			Help: "Total number of quote runs by terminal status",
		},
		[]string{"status"},
	)

	QuoteRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_run_duration_seconds",
			Help:    "End-to-end duration of a quote run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	AdvisoryFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_fallbacks_total",
			Help: "Advisory calls that fell back to the deterministic path",
		},
		[]string{"service"},
	)

	ExpansionWavesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expansion_waves_total",
			Help: "Runs that needed the expansion wave",
		},
	)

	SitesDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sites_dispatched_total",
			Help: "Sites dispatched per wave",
		},
		[]string{"wave"},
	)

	LearningFoldFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learning_fold_failures_total",
			Help: "Best-effort learning writes that failed",
		},
		[]string{"store"},
	)
)
