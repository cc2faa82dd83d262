// Package mcpserver exposes the search pipeline as Model Context
// Protocol tools so agent runtimes can call WebCat directly.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Kode-Rex/webcat/internal/dispatch"
	"github.com/Kode-Rex/webcat/internal/pipeline"
	"github.com/Kode-Rex/webcat/pkg/logging"
	"github.com/Kode-Rex/webcat/pkg/monitoring"
	"github.com/Kode-Rex/webcat/pkg/version"
)

// Server wraps the MCP server with the WebCat tool set.
type Server struct {
	mcpServer      *mcp.Server
	dispatcher     *dispatch.Dispatcher
	aggregator     *pipeline.Aggregator
	healthChecker  *monitoring.HealthChecker
	logger         logging.Logger
	searchTimeout  time.Duration
	defaultResults int
}

// Config holds configuration for the MCP server.
type Config struct {
	Dispatcher     *dispatch.Dispatcher
	Aggregator     *pipeline.Aggregator
	HealthChecker  *monitoring.HealthChecker
	Logger         logging.Logger
	SearchTimeout  time.Duration
	DefaultResults int
}

// NewServer creates an MCP server with the search and health tools
// registered.
func NewServer(cfg Config) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "webcat",
		Version: version.Version,
	}, nil)

	s := &Server{
		mcpServer:      mcpServer,
		dispatcher:     cfg.Dispatcher,
		aggregator:     cfg.Aggregator,
		healthChecker:  cfg.HealthChecker,
		logger:         cfg.Logger,
		searchTimeout:  cfg.SearchTimeout,
		defaultResults: cfg.DefaultResults,
	}

	s.registerTools()

	return s
}

// SearchInput represents input for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"required" jsonschema_description:"Natural language search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of results to return"`
}

// HealthCheckInput represents input for the health_check tool. It
// takes no arguments.
type HealthCheckInput struct{}

// maxResultsCap bounds how many results a single tool call may ask for.
const maxResultsCap = 10

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "search",
			Description: "Search the web and return ranked results enriched with the page content as markdown.",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args SearchInput) (*mcp.CallToolResult, any, error) {
			return s.handleSearch(ctx, args)
		},
	)

	mcp.AddTool(s.mcpServer,
		&mcp.Tool{
			Name:        "health_check",
			Description: "Report the health of the WebCat service and its search providers.",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args HealthCheckInput) (*mcp.CallToolResult, any, error) {
			return s.handleHealthCheck(ctx)
		},
	)
}

func (s *Server) handleSearch(ctx context.Context, args SearchInput) (*mcp.CallToolResult, any, error) {
	if args.Query == "" {
		return toolError("Search query is required")
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = s.defaultResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}
	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}

	started := time.Now()
	hits, source, err := s.dispatcher.Dispatch(ctx, args.Query, maxResults)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logging.Fields{
				"query": args.Query,
				"error": err,
			}).Warn("MCP search failed")
		}
		return toolError(fmt.Sprintf("Search failed: %v", err))
	}

	results := s.aggregator.Enrich(ctx, hits, nil)
	resp := pipeline.BuildResponse(args.Query, source, results, started)

	text := fmt.Sprintf("Found %d results for '%s' via %s.", len(resp.Results), resp.Query, resp.SearchSource)
	return toolSuccess(text, resp)
}

func (s *Server) handleHealthCheck(ctx context.Context) (*mcp.CallToolResult, any, error) {
	if s.healthChecker == nil {
		return toolError("Health checker not configured")
	}

	status := s.healthChecker.CheckHealth()
	text := fmt.Sprintf("Service %s is %s.", status.Service, status.Status)
	return toolSuccess(text, status)
}

// toolError returns an error result for a tool call.
func toolError(message string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}, nil, nil
}

// toolSuccess returns a success result carrying both a text summary
// and the structured payload.
func toolSuccess(text string, result any) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, result, nil
}

// HTTPHandler returns an HTTP handler for the MCP server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless:    true,
			JSONResponse: true,
		},
	)
}
