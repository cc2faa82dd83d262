package search

import (
	"github.com/Kode-Rex/webcat/pkg/config"
)

// Config holds environment configuration for search providers.
type Config struct {
	SerperAPIKey  string
	SerperAPIURL  string
	DuckDuckGoURL string
}

// LoadConfig loads search configuration from the environment.
func LoadConfig() Config {
	return Config{
		SerperAPIKey:  config.GetEnv("SERPER_API_KEY", ""),
		SerperAPIURL:  config.GetEnv("SERPER_API_URL", ""),
		DuckDuckGoURL: config.GetEnv("DUCKDUCKGO_API_URL", ""),
	}
}

// NewProviders creates the primary and fallback providers from
// configuration. The primary is nil when no Serper API key is set.
func NewProviders(cfg Config) (primary Provider, fallback Provider) {
	if serper, err := NewSerperProvider(cfg.SerperAPIKey, cfg.SerperAPIURL); err == nil {
		primary = serper
	}
	fallback = NewDuckDuckGoProvider(cfg.DuckDuckGoURL)
	return primary, fallback
}
