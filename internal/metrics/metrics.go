// Package metrics exposes Prometheus collectors for the search pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchTotal counts AI product searches by outcome
	// (matched, no_match, done_intent, unavailable, offline, error).
	SearchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolops",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Total AI product search requests by outcome",
	}, []string{"outcome"})

	// PrefilterCandidates observes the candidate set size handed to the oracle.
	PrefilterCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poolops",
		Subsystem: "search",
		Name:      "prefilter_candidates",
		Help:      "Number of catalog candidates after keyword prefiltering",
		Buckets:   []float64{1, 3, 5, 10, 25, 50, 100},
	})

	// OracleLatency observes ranking oracle call duration.
	OracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poolops",
		Subsystem: "oracle",
		Name:      "latency_seconds",
		Help:      "Ranking oracle call latency",
		Buckets:   prometheus.DefBuckets,
	})

	// OracleErrors counts oracle failures by cause (timeout, busy, auth, other).
	OracleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolops",
		Subsystem: "oracle",
		Name:      "errors_total",
		Help:      "Total ranking oracle failures by cause",
	}, []string{"cause"})

	// CatalogRefreshTotal counts catalog refresh attempts by result (ok, error).
	CatalogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolops",
		Subsystem: "catalog",
		Name:      "refresh_total",
		Help:      "Total catalog refresh attempts by result",
	}, []string{"result"})

	// CatalogProducts tracks the current snapshot size.
	CatalogProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "poolops",
		Subsystem: "catalog",
		Name:      "products",
		Help:      "Number of products in the current catalog snapshot",
	})

	// FeedbackTotal counts feedback records by type.
	FeedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolops",
		Subsystem: "learning",
		Name:      "feedback_total",
		Help:      "Total feedback records by feedback type",
	}, []string{"type"})
)
