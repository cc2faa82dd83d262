package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	streamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webcat",
			Name:      "stream_events_total",
			Help:      "SSE events written by type",
		},
		[]string{"type"},
	)

	// StreamsActive tracks currently open SSE connections.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "webcat",
			Name:      "streams_active",
			Help:      "Currently open SSE streams",
		},
	)
)
