// Package scrape fetches result URLs and converts their content into
// length-bounded markdown.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Kode-Rex/webcat/pkg/logging"
)

const (
	defaultMaxContentLength = 50000
	maxPageBytes            = 4 << 20 // hard cap on bytes read per page
	plainTextLimit          = 8000
	truncationMarker        = "... [content truncated]"
	scrapeUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Kind classifies what a scrape produced.
type Kind string

const (
	KindArticle     Kind = "article"
	KindPlainText   Kind = "plaintext"
	KindPDF         Kind = "pdf"
	KindUnsupported Kind = "unsupported"
	KindError       Kind = "error"
)

// Content is the outcome of scraping one URL.
type Content struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Kind      Kind   `json:"kind"`
	Markdown  string `json:"markdown"`
	Truncated bool   `json:"truncated"`
	Error     string `json:"error,omitempty"`
}

// Config configures the scraper.
type Config struct {
	Timeout          time.Duration
	MaxContentLength int
	Logger           logging.Logger
	// Transport overrides the SSRF-safe default. Tests use this to
	// reach loopback servers.
	Transport http.RoundTripper
}

// Scraper fetches pages over an SSRF-safe transport and renders them
// as markdown.
type Scraper struct {
	client            *http.Client
	maxContentLength  int
	logger            logging.Logger
	allowPrivateHosts bool // for tests that use httptest (localhost)
}

// NewScraper creates a scraper with an SSRF-safe HTTP client.
func NewScraper(cfg Config) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = defaultMaxContentLength
	}
	// A custom transport owns its own dialing policy, so the fast-path
	// private-address check is skipped for it.
	allowPrivateHosts := cfg.Transport != nil
	if cfg.Transport == nil {
		cfg.Transport = NewSSRFSafeTransport()
	}
	return &Scraper{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		maxContentLength:  cfg.MaxContentLength,
		logger:            cfg.Logger,
		allowPrivateHosts: allowPrivateHosts,
	}
}

func (s *Scraper) validateURL(rawURL string) error {
	if s.allowPrivateHosts {
		_, err := parseScrapeURL(rawURL)
		return err
	}
	_, err := validateScrapeURL(rawURL)
	return err
}

// Scrape fetches rawURL and converts the response to markdown. It
// never returns an error; failures are reported in Content.Error so a
// failed page does not sink the rest of the batch. fallbackTitle is
// the search result title, used when the page itself has none.
func (s *Scraper) Scrape(ctx context.Context, rawURL, fallbackTitle string) Content {
	start := time.Now()
	content := s.scrape(ctx, rawURL, fallbackTitle)
	observeScrape(content, time.Since(start))
	if content.Error != "" && s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"url":   rawURL,
			"error": content.Error,
		}).Warn("Scrape failed")
	}
	return content
}

func (s *Scraper) scrape(ctx context.Context, rawURL, fallbackTitle string) Content {
	content := Content{URL: rawURL, Title: fallbackTitle}

	if rawURL == "" {
		content.Kind = KindError
		content.Error = "missing url for content scraping"
		return content
	}

	if err := s.validateURL(rawURL); err != nil {
		content.Kind = KindError
		content.Error = err.Error()
		return content
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		content.Kind = KindError
		content.Error = fmt.Sprintf("create request: %v", err)
		return content
	}
	// Browser-like headers; some sites reject obvious bots
	req.Header.Set("User-Agent", scrapeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		content.Kind = KindError
		content.Error = fmt.Sprintf("failed to retrieve the webpage: %v", err)
		return content
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		content.Kind = KindError
		content.Error = fmt.Sprintf("failed to retrieve the webpage: status %d", resp.StatusCode)
		return content
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	if strings.Contains(contentType, "application/pdf") || strings.Contains(contentType, "application/octet-stream") {
		content.Kind = KindPDF
		content.Markdown, content.Truncated = s.truncate(binaryNote(content.Title, rawURL, contentType))
		return content
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		content.Kind = KindError
		content.Error = fmt.Sprintf("read response: %v", err)
		return content
	}

	// Some servers mislabel PDFs as text; sniff the magic bytes
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		content.Kind = KindPDF
		content.Markdown, content.Truncated = s.truncate(binaryNote(content.Title, rawURL, "application/pdf"))
		return content
	}

	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "text/markdown") || strings.Contains(contentType, "text/x-markdown") {
		block, clipped := plainTextBlock(content.Title, rawURL, string(data))
		content.Kind = KindPlainText
		content.Markdown, content.Truncated = s.truncate(block)
		if clipped {
			content.Truncated = true
		}
		return content
	}

	isHTML := contentType == "" || strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml")
	if !isHTML {
		content.Kind = KindUnsupported
		content.Error = fmt.Sprintf("unsupported content type %q", contentType)
		return content
	}

	title, markdown := extractArticle(stripBoilerplate(data), rawURL)
	if title != "" {
		content.Title = title
	}
	if markdown == "" {
		content.Kind = KindError
		content.Error = "no readable content extracted"
		return content
	}

	content.Kind = KindArticle
	content.Markdown, content.Truncated = s.truncate(articleDoc(content.Title, rawURL, markdown))
	return content
}

// truncate enforces the content length bound in runes, appending a
// marker when anything was cut.
func (s *Scraper) truncate(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) <= s.maxContentLength {
		return text, false
	}
	return string(runes[:s.maxContentLength]) + truncationMarker, true
}

func articleDoc(title, url, markdown string) string {
	return fmt.Sprintf("# %s\n\n*Source: %s*\n\n%s", title, url, markdown)
}

func plainTextBlock(title, url, text string) (string, bool) {
	clipped := false
	if runes := []rune(text); len(runes) > plainTextLimit {
		text = string(runes[:plainTextLimit])
		clipped = true
	}
	return fmt.Sprintf("# %s\n\n*Source: %s*\n\n```\n%s\n```", title, url, text), clipped
}

func binaryNote(title, url, contentType string) string {
	return fmt.Sprintf("# %s\n\n*Source: %s*\n\n**Note:** This content appears to be a binary file (%s) and cannot be converted to markdown. Please download the file directly from the source URL.", title, url, contentType)
}
