package config

import (
	"time"

	"github.com/Kode-Rex/webcat/pkg/config"
)

// Config stores environment configuration for WebCat.
type Config struct {
	Port              string
	SerperAPIKey      string
	WebCatAPIKey      string
	RateLimit         int
	RateLimitWindow   time.Duration
	MaxContentLength  int
	ScrapeTimeout     time.Duration
	SearchTimeout     time.Duration
	ScrapeConcurrency int
	HeartbeatInterval time.Duration
	DefaultResults    int
}

// LoadConfig loads the WebCat configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Port:              config.GetEnv("PORT", "8000"),
		SerperAPIKey:      config.GetEnv("SERPER_API_KEY", ""),
		WebCatAPIKey:      config.GetEnv("WEBCAT_API_KEY", ""),
		RateLimit:         config.GetEnvInt("RATE_LIMIT", 10),
		RateLimitWindow:   time.Duration(config.GetEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		MaxContentLength:  config.GetEnvInt("MAX_CONTENT_LENGTH", 50000),
		ScrapeTimeout:     time.Duration(config.GetEnvInt("SCRAPE_TIMEOUT_SECONDS", 5)) * time.Second,
		SearchTimeout:     time.Duration(config.GetEnvInt("SEARCH_TIMEOUT_SECONDS", 15)) * time.Second,
		ScrapeConcurrency: config.GetEnvInt("SCRAPE_CONCURRENCY", 3),
		HeartbeatInterval: time.Duration(config.GetEnvInt("HEARTBEAT_INTERVAL_SECONDS", 30)) * time.Second,
		DefaultResults:    config.GetEnvInt("DEFAULT_SEARCH_RESULTS", 5),
	}
}

// AuthEnabled reports whether bearer token auth is configured.
func (c Config) AuthEnabled() bool {
	return c.WebCatAPIKey != ""
}

// SerperConfigured reports whether the primary search provider has an
// API key.
func (c Config) SerperConfigured() bool {
	return c.SerperAPIKey != ""
}
