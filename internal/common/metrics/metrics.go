// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of match requests processed",
		},
		[]string{"status"},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "match_pipeline_duration_seconds",
			Help: "Duration of the full match pipeline in seconds",
		},
	)

	SourceSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "source_search_duration_seconds",
			Help: "Duration of a single source lookup in seconds",
		},
		[]string{"source"},
	)

	SourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_failures_total",
			Help: "Total number of failed or timed-out source lookups",
		},
		[]string{"source"},
	)

	CandidatesAggregated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidates_aggregated_total",
			Help: "Total number of candidates contributed per source",
		},
		[]string{"source"},
	)

	PersistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "persist_queue_depth",
			Help: "Number of match snapshots waiting in the persistence queue",
		},
	)

	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persist_failures_total",
			Help: "Total number of failed snapshot writes",
		},
	)
)
