package coord

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// issuedTotal counts requests handed to the runtime
	issuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_search_issued_total",
		Help: "Search requests issued",
	})

	// supersededTotal counts requests cancelled by a newer one
	supersededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_search_superseded_total",
		Help: "Search requests cancelled because a newer request was issued",
	})

	// staleTotal counts responses dropped by the sequence check
	staleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_search_stale_total",
		Help: "Search responses discarded as stale",
	})

	// outcomeTotal counts accepted responses by failure class
	outcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_search_outcome_total",
		Help: "Accepted search responses by outcome class",
	}, []string{"class"})

	// latency tracks issue-to-accept time of accepted responses
	latency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_search_duration_seconds",
		Help:    "Search latency from issue to acceptance",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
	})
)
