// Package api exposes the search pipeline over REST and SSE.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kode-Rex/webcat/internal/dispatch"
	"github.com/Kode-Rex/webcat/internal/pipeline"
	"github.com/Kode-Rex/webcat/internal/ratelimit"
	"github.com/Kode-Rex/webcat/internal/stream"
	"github.com/Kode-Rex/webcat/pkg/logging"
)

// Handler serves the search endpoints.
type Handler struct {
	Dispatcher        *dispatch.Dispatcher
	Aggregator        *pipeline.Aggregator
	Logger            logging.Logger
	SearchTimeout     time.Duration
	HeartbeatInterval time.Duration
	DefaultResults    int
}

// searchRequest is the POST /api/search body.
type searchRequest struct {
	Query      string `json:"query" binding:"required"`
	MaxResults int    `json:"max_results"`
}

// Register mounts the search routes on a router group.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/search", h.Search)
	r.GET("/search/stream", h.SearchStream)
}

// RegisterMCP mounts the MCP handler behind the same auth and rate
// limit gates as the search endpoints.
func RegisterMCP(r gin.IRoutes, apiKey string, limiter *ratelimit.Limiter, mcpHandler http.Handler) {
	r.Any("/mcp", AuthMiddleware(apiKey), ratelimit.Middleware(limiter), gin.WrapH(mcpHandler))
}

// Search runs the full pipeline and returns the response as JSON.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "query is required",
		})
		return
	}

	resp, err := h.run(c.Request.Context(), req.Query, req.MaxResults, nil)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "search_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchStream runs the pipeline while streaming progress and results
// over SSE, one data event per enriched result in rank order.
func (h *Handler) SearchStream(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "query is required",
		})
		return
	}
	maxResults, _ := strconv.Atoi(c.Query("max_results"))

	streamer, err := stream.NewStreamer(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unavailable"})
		return
	}
	stream.SetHeaders(c.Writer)
	c.Status(http.StatusOK)

	stream.StreamsActive.Inc()
	defer stream.StreamsActive.Dec()

	stop := make(chan struct{})
	defer close(stop)
	if h.HeartbeatInterval > 0 {
		go streamer.Heartbeat(h.HeartbeatInterval, stop)
	}

	if err := streamer.SendConnection("WebCat stream started"); err != nil {
		return
	}
	if err := streamer.SendStatus(fmt.Sprintf("Searching for: %s", query)); err != nil {
		return
	}

	resp, err := h.run(c.Request.Context(), query, maxResults, func(r pipeline.EnrichedResult) {
		_ = streamer.SendData(r)
	})
	if err != nil {
		_ = streamer.SendError(err.Error())
		return
	}

	_ = streamer.SendComplete(fmt.Sprintf("Search completed. Found %d results.", len(resp.Results)))
}

// maxResultsCap bounds how many results a single request may ask for.
const maxResultsCap = 10

// run executes dispatch and aggregation under the shared search budget.
func (h *Handler) run(ctx context.Context, query string, maxResults int, emit func(pipeline.EnrichedResult)) (pipeline.SearchResponse, error) {
	if maxResults <= 0 {
		maxResults = h.DefaultResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}
	if h.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.SearchTimeout)
		defer cancel()
	}

	started := time.Now()
	hits, source, err := h.Dispatcher.Dispatch(ctx, query, maxResults)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithFields(logging.Fields{
				"query": query,
				"error": err,
			}).Warn("Search dispatch failed")
		}
		return pipeline.SearchResponse{}, err
	}

	results := h.Aggregator.Enrich(ctx, hits, emit)
	return pipeline.BuildResponse(query, source, results, started), nil
}
