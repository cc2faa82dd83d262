// Package pipeline enriches ranked search hits with scraped content,
// preserving rank order while scraping concurrently.
package pipeline

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kode-Rex/webcat/internal/dispatch"
	"github.com/Kode-Rex/webcat/internal/scrape"
)

// EnrichedResult pairs a search hit with its scraped content.
type EnrichedResult struct {
	Title   string         `json:"title"`
	URL     string         `json:"url"`
	Snippet string         `json:"snippet"`
	Rank    int            `json:"rank"`
	Content scrape.Content `json:"content"`
}

// SearchResponse is the full pipeline output for one query.
type SearchResponse struct {
	Query        string           `json:"query"`
	SearchSource string           `json:"search_source"`
	Results      []EnrichedResult `json:"results"`
	Succeeded    int              `json:"succeeded"`
	Failed       int              `json:"failed"`
	ElapsedMS    int64            `json:"elapsed_ms"`
}

// Scraper is the content fetcher the aggregator fans out to.
type Scraper interface {
	Scrape(ctx context.Context, url, fallbackTitle string) scrape.Content
}

// Aggregator scrapes hits concurrently and emits enriched results in
// rank order regardless of completion order.
type Aggregator struct {
	scraper     Scraper
	concurrency int
}

// NewAggregator creates an aggregator with the given scrape concurrency.
func NewAggregator(scraper Scraper, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Aggregator{scraper: scraper, concurrency: concurrency}
}

// Enrich scrapes every hit and returns one result per hit, index i
// holding the content for hits[i]. When emit is non-nil it is called
// for each result as soon as that result and all lower-ranked results
// are ready, so streamed output arrives in rank order.
func (a *Aggregator) Enrich(ctx context.Context, hits []dispatch.Hit, emit func(EnrichedResult)) []EnrichedResult {
	results := make([]EnrichedResult, len(hits))

	var mu sync.Mutex
	done := make([]bool, len(hits))
	next := 0
	finish := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done[i] = true
		for next < len(hits) && done[next] {
			if emit != nil {
				emit(results[next])
			}
			next++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, hit := range hits {
		g.Go(func() error {
			results[i] = EnrichedResult{
				Title:   hit.Title,
				URL:     hit.URL,
				Snippet: hit.Snippet,
				Rank:    hit.Rank,
				Content: a.scraper.Scrape(gctx, hit.URL, hit.Title),
			}
			finish(i)
			return nil
		})
	}
	_ = g.Wait() // workers report failures inside Content, never as errors

	return results
}

// BuildResponse assembles the pipeline output with success counters.
func BuildResponse(query, source string, results []EnrichedResult, started time.Time) SearchResponse {
	resp := SearchResponse{
		Query:        query,
		SearchSource: source,
		Results:      results,
		ElapsedMS:    time.Since(started).Milliseconds(),
	}
	for _, r := range results {
		if r.Content.Error == "" {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}
