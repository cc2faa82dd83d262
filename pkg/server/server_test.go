package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kode-Rex/webcat/pkg/logging"
	"github.com/Kode-Rex/webcat/pkg/monitoring"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := DefaultConfig("webcat", "8000")
	if cfg.Port != "8000" {
		t.Fatalf("expected port 8000, got %s", cfg.Port)
	}
	if cfg.ServiceName != "webcat" {
		t.Fatalf("expected service webcat, got %s", cfg.ServiceName)
	}
}

func TestSetupServiceRouter_Liveness(t *testing.T) {
	logger := logging.NewLogger()
	router := SetupServiceRouter(logger, "webcat", nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSetupServiceRouter_Readiness(t *testing.T) {
	logger := logging.NewLogger()
	hc := monitoring.NewHealthChecker("webcat", "test")
	hc.AddCheck("always_ok", func() monitoring.CheckResult {
		return monitoring.CheckResult{Status: monitoring.StatusHealthy}
	})

	router := SetupServiceRouter(logger, "webcat", hc, nil)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSetupServiceRouter_NotReady(t *testing.T) {
	logger := logging.NewLogger()
	hc := monitoring.NewHealthChecker("webcat", "test")
	hc.AddCheck("broken", func() monitoring.CheckResult {
		return monitoring.CheckResult{Status: monitoring.StatusUnhealthy, Message: "down"}
	})

	router := SetupServiceRouter(logger, "webcat", hc, nil)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
