// Package ratelimit implements a per-client sliding window rate
// limiter for the search endpoints.
package ratelimit

import (
	"sync"
	"time"

	"github.com/Kode-Rex/webcat/pkg/logging"
)

// Config configures the rate limiter
type Config struct {
	// Limit is the number of requests allowed per window
	Limit int
	// Window is the sliding window duration (default: 1 minute)
	Window time.Duration
	// Logger for rate limit events
	Logger logging.Logger
	// CleanupInterval is how often to clean up idle clients (default: 1 minute)
	CleanupInterval time.Duration
}

// Limiter implements a sliding window rate limiter keyed by client
type Limiter struct {
	config  Config
	clients sync.Map // map[clientKey]*window
	stopCh  chan struct{}
	now     func() time.Time
}

// window tracks request timestamps for one client
type window struct {
	mu          sync.Mutex
	timestamps  []time.Time
	lastRequest time.Time
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	l := &Limiter{
		config: config,
		stopCh: make(chan struct{}),
		now:    time.Now,
	}

	// Start cleanup goroutine
	go l.cleanupLoop()

	return l
}

// Stop stops the limiter cleanup goroutine
func (l *Limiter) Stop() {
	close(l.stopCh)
}

// cleanupLoop periodically removes idle client windows
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// cleanup removes clients with no requests inside two windows
func (l *Limiter) cleanup() {
	threshold := l.now().Add(-2 * l.config.Window)
	l.clients.Range(func(key, value interface{}) bool {
		w := value.(*window) //nolint:errcheck // type guaranteed by sync.Map usage
		w.mu.Lock()
		if w.lastRequest.Before(threshold) {
			w.mu.Unlock()
			l.clients.Delete(key)
		} else {
			w.mu.Unlock()
		}
		return true
	})
}

// Allow checks if a request is allowed for the given client key.
// Returns: allowed, remaining requests in the window, and seconds until
// the oldest counted request leaves the window.
func (l *Limiter) Allow(clientKey string) (allowed bool, remaining int, resetSeconds int) {
	if l.config.Limit <= 0 {
		return true, 0, 0
	}

	wI, _ := l.clients.LoadOrStore(clientKey, &window{})
	w := wI.(*window) //nolint:errcheck // type guaranteed by sync.Map usage

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	w.lastRequest = now
	cutoff := now.Add(-l.config.Window)

	// Evict timestamps that fell out of the window
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) >= l.config.Limit {
		// Oldest timestamp determines when a slot frees up
		resetSeconds = int(w.timestamps[0].Sub(cutoff).Seconds()) + 1
		windowSeconds := int(l.config.Window.Seconds())
		if resetSeconds > windowSeconds {
			resetSeconds = windowSeconds
		}
		if l.config.Logger != nil {
			l.config.Logger.WithFields(logging.Fields{
				"client":        clientKey,
				"limit":         l.config.Limit,
				"reset_seconds": resetSeconds,
			}).Warn("Rate limit exceeded")
		}
		return false, 0, resetSeconds
	}

	w.timestamps = append(w.timestamps, now)
	remaining = l.config.Limit - len(w.timestamps)
	resetSeconds = int(w.timestamps[0].Sub(cutoff).Seconds()) + 1
	return true, remaining, resetSeconds
}
