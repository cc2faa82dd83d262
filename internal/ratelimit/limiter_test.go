package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestLimiter(limit int, window time.Duration) (*Limiter, *time.Time) {
	l := NewLimiter(Config{Limit: limit, Window: window})
	l.Stop()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAllow_WithinLimit(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := l.Allow("1.2.3.4")
		if !allowed {
			t.Fatalf("request %d unexpectedly blocked", i+1)
		}
		if want := 3 - (i + 1); remaining != want {
			t.Fatalf("request %d: expected remaining %d, got %d", i+1, want, remaining)
		}
	}
}

func TestAllow_BlocksOverLimit(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)

	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")

	allowed, remaining, resetSeconds := l.Allow("1.2.3.4")
	if allowed {
		t.Fatalf("expected third request to be blocked")
	}
	if remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}
	if resetSeconds <= 0 || resetSeconds > 60 {
		t.Fatalf("expected reset within the window, got %d", resetSeconds)
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")
	if allowed, _, _ := l.Allow("1.2.3.4"); allowed {
		t.Fatalf("expected block at limit")
	}

	// Advance past the window so old timestamps are evicted
	*clock = clock.Add(61 * time.Second)
	if allowed, _, _ := l.Allow("1.2.3.4"); !allowed {
		t.Fatalf("expected request allowed after window slid")
	}
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	if allowed, _, _ := l.Allow("1.1.1.1"); !allowed {
		t.Fatalf("first client blocked")
	}
	if allowed, _, _ := l.Allow("2.2.2.2"); !allowed {
		t.Fatalf("second client should have its own window")
	}
	if allowed, _, _ := l.Allow("1.1.1.1"); allowed {
		t.Fatalf("first client should be at its limit")
	}
}

func TestCleanup_RemovesIdleClients(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	l.Allow("1.2.3.4")
	*clock = clock.Add(3 * time.Minute)
	l.cleanup()

	if _, ok := l.clients.Load("1.2.3.4"); ok {
		t.Fatalf("expected idle client to be cleaned up")
	}
}

func TestMiddleware_Headers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := newTestLimiter(2, time.Minute)

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/", func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("expected limit header 2, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "1" {
		t.Fatalf("expected remaining header 1, got %q", got)
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected reset header to be set")
	}
}

func TestMiddleware_TooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := newTestLimiter(1, time.Minute)

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/", func(c *gin.Context) { c.Status(200) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest("GET", "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest("GET", "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if got := second.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0, got %q", got)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}
