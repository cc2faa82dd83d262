package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/Kode-Rex/webcat/pkg/httpx"
)

const defaultSerperURL = "https://google.serper.dev/search"

// SerperName is the source label attached to Serper results.
const SerperName = "Serper API"

// SerperProvider implements the Serper Google Search API.
type SerperProvider struct {
	apiKey   string
	apiURL   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
}

// NewSerperProvider creates a Serper search provider.
func NewSerperProvider(apiKey, apiURL string) (*SerperProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("serper: %w", ErrNotConfigured)
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultSerperURL
	}
	return &SerperProvider{
		apiKey:   apiKey,
		apiURL:   apiURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		executor: httpx.NewExecutor(httpx.DefaultExecutorConfig()),
	}, nil
}

// Name returns the provider label.
func (p *SerperProvider) Name() string { return SerperName }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Search executes a query against the Serper API.
func (p *SerperProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	payload, err := json.Marshal(serperRequest{Query: query, Num: opts.Limit})
	if err != nil {
		return nil, fmt.Errorf("encode serper request: %w", err)
	}

	resp, err := httpx.Do(ctx, p.executor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create serper request: %w", err)
		}
		req.Header.Set("X-API-KEY", p.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err == nil && httpx.DefaultShouldRetry(resp, nil) {
			resp.Body.Close()
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("serper request failed with status %d", resp.StatusCode)
	}

	var decoded serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Organic))
	for _, item := range decoded.Organic {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: strings.TrimSpace(item.Snippet),
		})
	}

	return results, nil
}
