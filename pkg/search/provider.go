package search

import (
	"context"
	"errors"
)

// ErrNotConfigured indicates a provider is missing the credentials it
// needs and cannot serve queries.
var ErrNotConfigured = errors.New("search provider not configured")

// Provider defines the interface for web search providers.
type Provider interface {
	// Name returns the human-readable label attached to results from
	// this provider.
	Name() string
	Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error)
}

// Result represents a single search result.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// SearchOptions controls search behavior across providers.
type SearchOptions struct {
	Limit int
}
