package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware that enforces the rate limit per
// client IP and sets the X-RateLimit-* headers on every response.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, resetSeconds := l.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSeconds))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. Please retry after the specified time.",
				"limit":       l.config.Limit,
				"retry_after": resetSeconds,
			})
			return
		}

		c.Next()
	}
}
