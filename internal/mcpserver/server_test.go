package mcpserver

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Kode-Rex/webcat/internal/dispatch"
	"github.com/Kode-Rex/webcat/internal/pipeline"
	"github.com/Kode-Rex/webcat/internal/scrape"
	"github.com/Kode-Rex/webcat/pkg/monitoring"
	"github.com/Kode-Rex/webcat/pkg/search"
)

type stubProvider struct {
	name    string
	results []search.Result
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, opts search.SearchOptions) ([]search.Result, error) {
	return s.results, s.err
}

type stubScraper struct{}

func (stubScraper) Scrape(ctx context.Context, url, fallbackTitle string) scrape.Content {
	return scrape.Content{URL: url, Title: fallbackTitle, Kind: scrape.KindArticle, Markdown: "# " + fallbackTitle}
}

func newTestServer(provider search.Provider) *Server {
	return NewServer(Config{
		Dispatcher:     dispatch.NewDispatcher(provider, &stubProvider{name: "DuckDuckGo (free fallback)"}, nil),
		Aggregator:     pipeline.NewAggregator(stubScraper{}, 3),
		HealthChecker:  monitoring.NewHealthChecker("webcat", "test"),
		SearchTimeout:  15 * time.Second,
		DefaultResults: 5,
	})
}

func TestHandleSearch(t *testing.T) {
	provider := &stubProvider{name: "Serper API", results: []search.Result{
		{Title: "Go", URL: "https://go.dev", Snippet: "the language"},
	}}
	s := newTestServer(provider)

	result, structured, err := s.handleSearch(context.Background(), SearchInput{Query: "golang"})
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}

	resp, ok := structured.(pipeline.SearchResponse)
	if !ok {
		t.Fatalf("expected SearchResponse, got %T", structured)
	}
	if resp.SearchSource != "Serper API" {
		t.Fatalf("unexpected source %q", resp.SearchSource)
	}
	if len(resp.Results) != 1 || resp.Results[0].Content.Markdown != "# Go" {
		t.Fatalf("unexpected results %+v", resp.Results)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	s := newTestServer(&stubProvider{name: "Serper API"})

	result, _, err := s.handleSearch(context.Background(), SearchInput{})
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for empty query")
	}
}

func TestHandleSearch_AllProvidersFailed(t *testing.T) {
	s := newTestServer(&stubProvider{name: "Serper API", err: context.DeadlineExceeded})

	result, _, err := s.handleSearch(context.Background(), SearchInput{Query: "golang"})
	if err != nil {
		t.Fatalf("handleSearch: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error when both providers fail")
	}
}

func TestHandleHealthCheck(t *testing.T) {
	s := newTestServer(&stubProvider{name: "Serper API"})

	result, structured, err := s.handleHealthCheck(context.Background())
	if err != nil {
		t.Fatalf("handleHealthCheck: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}

	status, ok := structured.(monitoring.HealthStatus)
	if !ok {
		t.Fatalf("expected HealthStatus, got %T", structured)
	}
	if status.Status != monitoring.StatusHealthy {
		t.Fatalf("expected healthy with no checks, got %q", status.Status)
	}

	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || text.Text == "" {
		t.Fatalf("expected text summary, got %+v", result.Content[0])
	}
}
