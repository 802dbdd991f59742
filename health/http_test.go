package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestLivenessHandler verifies the liveness probe always answers OK.
func TestLivenessHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	LivenessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("expected body 'OK', got %q", rec.Body.String())
	}
}

// TestReadinessHandler_Healthy verifies a healthy aggregate reports ready.
func TestReadinessHandler_Healthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("cache", staticChecker("cache", Healthy("ok")))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("expected body 'OK', got %q", rec.Body.String())
	}
}

// TestReadinessHandler_DegradedStillReady verifies stale-serving mode does
// not fail the probe.
func TestReadinessHandler_DegradedStillReady(t *testing.T) {
	agg := NewAggregator()
	agg.Register("cache", staticChecker("cache", Degraded("backend down")))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for degraded, got %d", rec.Code)
	}
	if rec.Body.String() != "DEGRADED" {
		t.Errorf("expected body 'DEGRADED', got %q", rec.Body.String())
	}
}

// TestReadinessHandler_Unhealthy verifies 503 when a check fails.
func TestReadinessHandler_Unhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register("breakers", staticChecker("breakers", Unhealthy("circuit open", nil)))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(agg)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// TestDetailedHandler verifies the JSON shape carries per-check detail.
func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("cache", staticChecker("cache", Healthy("reachable")))
	agg.Register("breakers", staticChecker("breakers", Degraded("github half-open")))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	DetailedHandler(agg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("expected overall degraded, got %q", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(resp.Checks))
	}
	if resp.Checks["cache"].Status != "healthy" {
		t.Errorf("expected cache healthy, got %q", resp.Checks["cache"].Status)
	}
}

// TestRegisterHandlers verifies the standard endpoints are mounted.
func TestRegisterHandlers(t *testing.T) {
	agg := NewAggregator()
	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code == http.StatusNotFound {
			t.Errorf("expected %s to be registered", path)
		}
	}
}
