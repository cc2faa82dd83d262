package main

import (
	"github.com/Kode-Rex/webcat/internal/api"
	webcatcfg "github.com/Kode-Rex/webcat/internal/config"
	"github.com/Kode-Rex/webcat/internal/dispatch"
	"github.com/Kode-Rex/webcat/internal/mcpserver"
	"github.com/Kode-Rex/webcat/internal/pipeline"
	"github.com/Kode-Rex/webcat/internal/ratelimit"
	"github.com/Kode-Rex/webcat/internal/scrape"
	"github.com/Kode-Rex/webcat/pkg/config"
	"github.com/Kode-Rex/webcat/pkg/logging"
	"github.com/Kode-Rex/webcat/pkg/monitoring"
	"github.com/Kode-Rex/webcat/pkg/search"
	"github.com/Kode-Rex/webcat/pkg/server"
	"github.com/Kode-Rex/webcat/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("webcat")
	config.LoadEnv(logger)

	logger.Info("Starting WebCat (web search with content enrichment)")

	cfg := webcatcfg.LoadConfig()

	searchCfg := search.LoadConfig()
	primary, fallback := search.NewProviders(searchCfg)
	if primary == nil {
		logger.Warn("SERPER_API_KEY not set, all searches use the DuckDuckGo fallback")
	}
	dispatcher := dispatch.NewDispatcher(primary, fallback, logger)

	scraper := scrape.NewScraper(scrape.Config{
		Timeout:          cfg.ScrapeTimeout,
		MaxContentLength: cfg.MaxContentLength,
		Logger:           logger,
	})
	aggregator := pipeline.NewAggregator(scraper, cfg.ScrapeConcurrency)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Limit:  cfg.RateLimit,
		Window: cfg.RateLimitWindow,
		Logger: logger,
	})
	defer limiter.Stop()

	healthChecker := monitoring.NewHealthChecker("webcat", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("webcat", version.Version, version.GitCommit)

	healthChecker.AddCheck("search_provider", monitoring.SearchProviderHealthCheck(cfg.SerperConfigured))

	duckURL := searchCfg.DuckDuckGoURL
	if duckURL == "" {
		duckURL = search.DefaultDuckDuckGoURL
	}
	healthChecker.AddCheck("duckduckgo", monitoring.HTTPServiceHealthCheck("duckduckgo", duckURL))

	app := server.SetupServiceRouter(logger, "webcat", healthChecker, metricsCollector)

	handler := &api.Handler{
		Dispatcher:        dispatcher,
		Aggregator:        aggregator,
		Logger:            logger,
		SearchTimeout:     cfg.SearchTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		DefaultResults:    cfg.DefaultResults,
	}

	apiGroup := app.Group("/api")
	apiGroup.Use(api.AuthMiddleware(cfg.WebCatAPIKey))
	apiGroup.Use(ratelimit.Middleware(limiter))
	handler.Register(apiGroup)

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Dispatcher:     dispatcher,
		Aggregator:     aggregator,
		HealthChecker:  healthChecker,
		Logger:         logger,
		SearchTimeout:  cfg.SearchTimeout,
		DefaultResults: cfg.DefaultResults,
	})
	api.RegisterMCP(app, cfg.WebCatAPIKey, limiter, mcpSrv.HTTPHandler())

	serverConfig := server.DefaultConfig("webcat", cfg.Port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
