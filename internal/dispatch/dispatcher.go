// Package dispatch routes a query to the primary search provider and
// falls back to the free provider when the primary cannot serve it.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/Kode-Rex/webcat/pkg/logging"
	"github.com/Kode-Rex/webcat/pkg/search"
)

// ErrAllProvidersFailed indicates neither the primary nor the fallback
// provider produced results.
var ErrAllProvidersFailed = errors.New("all search providers failed")

// ErrProviderUnavailable classifies network and timeout failures.
var ErrProviderUnavailable = errors.New("search provider unavailable")

// ErrProviderRejected classifies non-2xx and malformed responses.
var ErrProviderRejected = errors.New("search provider rejected request")

// fallbackBudgetFloor is the minimum time the fallback provider needs
// to be worth calling at all.
const fallbackBudgetFloor = 2 * time.Second

// Hit is one ranked search result.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// Dispatcher selects between the primary and fallback providers.
// Primary may be nil, which means every query goes straight to the
// fallback.
type Dispatcher struct {
	primary  search.Provider
	fallback search.Provider
	logger   logging.Logger
}

// NewDispatcher creates a dispatcher over the given providers.
func NewDispatcher(primary, fallback search.Provider, logger logging.Logger) *Dispatcher {
	return &Dispatcher{primary: primary, fallback: fallback, logger: logger}
}

// Dispatch runs the query and returns ranked hits plus the label of
// the provider that served them. The fallback is consulted at most
// once: when the primary is unconfigured, fails, or returns zero hits.
// A primary that returned hits is final.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, maxResults int) ([]Hit, string, error) {
	opts := search.SearchOptions{Limit: maxResults}

	if d.primary != nil {
		start := time.Now()
		results, err := d.primary.Search(ctx, query, opts)
		searchDispatchesTotal.WithLabelValues(d.primary.Name(), statusLabel(err)).Inc()
		searchDuration.WithLabelValues(d.primary.Name()).Observe(time.Since(start).Seconds())

		if err == nil && len(results) > 0 {
			return rank(results, maxResults), d.primary.Name(), nil
		}

		reason := "no_results"
		if err != nil {
			classified := classify(err)
			reason = "error"
			if d.logger != nil {
				d.logger.WithFields(logging.Fields{
					"provider": d.primary.Name(),
					"class":    classified.Error(),
					"error":    err,
				}).Warn("Primary search provider failed")
			}
		}
		searchFallbacksTotal.WithLabelValues(reason).Inc()
	} else {
		searchFallbacksTotal.WithLabelValues("unconfigured").Inc()
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < fallbackBudgetFloor {
		return nil, "", ErrAllProvidersFailed
	}

	start := time.Now()
	results, err := d.fallback.Search(ctx, query, opts)
	searchDispatchesTotal.WithLabelValues(d.fallback.Name(), statusLabel(err)).Inc()
	searchDuration.WithLabelValues(d.fallback.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		if d.logger != nil {
			d.logger.WithFields(logging.Fields{
				"provider": d.fallback.Name(),
				"error":    err,
			}).Warn("Fallback search provider failed")
		}
		return nil, "", ErrAllProvidersFailed
	}
	if len(results) == 0 {
		return nil, "", ErrAllProvidersFailed
	}

	return rank(results, maxResults), d.fallback.Name(), nil
}

// classify maps raw provider errors to the two internal classes. Both
// trigger fallback; the distinction only matters for logs.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrProviderUnavailable
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrProviderUnavailable
	}
	return ErrProviderRejected
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func rank(results []search.Result, maxResults int) []Hit {
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	hits := make([]Hit, 0, len(results))
	for i, r := range results {
		hits = append(hits, Hit{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Snippet,
			Rank:    i + 1,
		})
	}
	return hits
}
