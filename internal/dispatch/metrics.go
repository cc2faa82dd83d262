package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchDispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webcat",
			Name:      "search_dispatches_total",
			Help:      "Total provider calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webcat",
			Name:      "search_duration_seconds",
			Help:      "Duration of provider calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	searchFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webcat",
			Name:      "search_fallbacks_total",
			Help:      "Queries routed to the fallback provider by reason",
		},
		[]string{"reason"},
	)
)
