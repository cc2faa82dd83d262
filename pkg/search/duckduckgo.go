package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/failsafe-go/failsafe-go"

	"github.com/Kode-Rex/webcat/pkg/httpx"
)

// DefaultDuckDuckGoURL is the public DuckDuckGo HTML endpoint. It is
// exported so the readiness probe can target the same endpoint the
// fallback provider uses.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoName is the source label attached to DuckDuckGo results.
const DuckDuckGoName = "DuckDuckGo (free fallback)"

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. It needs no
// API key, which makes it the fallback when Serper is unavailable.
type DuckDuckGoProvider struct {
	apiURL   string
	client   *http.Client
	executor failsafe.Executor[*http.Response]
}

// NewDuckDuckGoProvider creates a DuckDuckGo search provider.
func NewDuckDuckGoProvider(apiURL string) *DuckDuckGoProvider {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultDuckDuckGoURL
	}
	return &DuckDuckGoProvider{
		apiURL:   apiURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		executor: httpx.NewExecutor(httpx.DefaultExecutorConfig()),
	}
}

// Name returns the provider label.
func (p *DuckDuckGoProvider) Name() string { return DuckDuckGoName }

// Search executes a query against the DuckDuckGo HTML endpoint.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	form := url.Values{}
	form.Set("q", query)

	resp, err := httpx.Do(ctx, p.executor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("create duckduckgo request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

		resp, err := p.client.Do(req)
		if err == nil && httpx.DefaultShouldRetry(resp, nil) {
			resp.Body.Close()
		}
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("duckduckgo request failed with status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo response: %w", err)
	}

	limit := opts.Limit
	results := make([]Result, 0, limit)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}

		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDuckDuckGoRedirect(href)
		if target == "" {
			return true
		}

		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return limit <= 0 || len(results) < limit
	})

	return results, nil
}

// resolveDuckDuckGoRedirect unwraps the tracking redirect DuckDuckGo
// puts around result links (//duckduckgo.com/l/?uddg=<encoded>).
func resolveDuckDuckGoRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && u.Path == "/l/" {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
