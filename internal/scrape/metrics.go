package scrape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scrapePagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webcat",
			Name:      "scrape_pages_total",
			Help:      "Total pages scraped by outcome kind",
		},
		[]string{"kind"},
	)

	scrapeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "webcat",
			Name:      "scrape_duration_seconds",
			Help:      "Duration of page scrapes in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	scrapeTruncationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "webcat",
			Name:      "scrape_truncations_total",
			Help:      "Total scraped documents cut at the content length limit",
		},
	)
)

func observeScrape(content Content, d time.Duration) {
	scrapePagesTotal.WithLabelValues(string(content.Kind)).Inc()
	scrapeDuration.Observe(d.Seconds())
	if content.Truncated {
		scrapeTruncationsTotal.Inc()
	}
}
