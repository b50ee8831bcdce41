package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	if m.ExternalAPIRequestsTotal == nil {
		t.Error("ExternalAPIRequestsTotal is nil")
	}
	if m.ExternalAPIErrorsTotal == nil {
		t.Error("ExternalAPIErrorsTotal is nil")
	}
	if m.ExternalAPIDuration == nil {
		t.Error("ExternalAPIDuration is nil")
	}
	if m.ViewTransitionsTotal == nil {
		t.Error("ViewTransitionsTotal is nil")
	}
	if m.StaleResultsTotal == nil {
		t.Error("StaleResultsTotal is nil")
	}
	if m.SkippedActionsTotal == nil {
		t.Error("SkippedActionsTotal is nil")
	}
	if m.ActiveSessions == nil {
		t.Error("ActiveSessions is nil")
	}
	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.CircuitBreakerState == nil {
		t.Error("CircuitBreakerState is nil")
	}
	if m.CircuitBreakerTrips == nil {
		t.Error("CircuitBreakerTrips is nil")
	}
}

func TestGetMetrics_Singleton(t *testing.T) {
	if GetMetrics() != GetMetrics() {
		t.Error("GetMetrics should return the same instance")
	}
}

func TestRecordExternalAPIRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordExternalAPIRequest("strategy", "/strategy")
	m.RecordExternalAPIRequest("strategy", "/strategy")
	m.RecordExternalAPIRequest("strategy", "/scan")

	strategyCount := testutil.ToFloat64(m.ExternalAPIRequestsTotal.WithLabelValues("strategy", "/strategy"))
	if strategyCount != 2 {
		t.Errorf("Expected /strategy count to be 2, got %f", strategyCount)
	}

	scanCount := testutil.ToFloat64(m.ExternalAPIRequestsTotal.WithLabelValues("strategy", "/scan"))
	if scanCount != 1 {
		t.Errorf("Expected /scan count to be 1, got %f", scanCount)
	}
}

func TestRecordExternalAPIError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordExternalAPIError("strategy", "/strategy", "not_found")
	m.RecordExternalAPIError("strategy", "/scan", "server_error")

	notFound := testutil.ToFloat64(m.ExternalAPIErrorsTotal.WithLabelValues("strategy", "/strategy", "not_found"))
	if notFound != 1 {
		t.Errorf("Expected not_found count to be 1, got %f", notFound)
	}
}

func TestRecordExternalAPIDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordExternalAPIDuration("strategy", "/scan", 1200*time.Millisecond)

	if count := testutil.CollectAndCount(m.ExternalAPIDuration); count != 1 {
		t.Errorf("Expected 1 duration series, got %d", count)
	}
}

func TestRecordViewTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordViewTransition("loading")
	m.RecordViewTransition("loading")
	m.RecordViewTransition("scan_results")

	if got := testutil.ToFloat64(m.ViewTransitionsTotal.WithLabelValues("loading")); got != 2 {
		t.Errorf("Expected loading count to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(m.ViewTransitionsTotal.WithLabelValues("scan_results")); got != 1 {
		t.Errorf("Expected scan_results count to be 1, got %f", got)
	}
}

func TestRecordStaleAndSkipped(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordStaleResult("scan")
	m.RecordSkippedAction("strategy")
	m.RecordSkippedAction("strategy")

	if got := testutil.ToFloat64(m.StaleResultsTotal.WithLabelValues("scan")); got != 1 {
		t.Errorf("Expected stale scan count to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.SkippedActionsTotal.WithLabelValues("strategy")); got != 2 {
		t.Errorf("Expected skipped strategy count to be 2, got %f", got)
	}
}

func TestRecordResultCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordResultCount("strategy_results", 3)

	if count := testutil.CollectAndCount(m.ResultCount); count != 1 {
		t.Errorf("Expected 1 result count series, got %d", count)
	}
}

func TestSetActiveSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetActiveSessions(4)

	if got := testutil.ToFloat64(m.ActiveSessions); got != 4 {
		t.Errorf("Expected 4 active sessions, got %f", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordHTTPRequest("GET", "/api/health", "200", 10*time.Millisecond, 256)
	m.RecordHTTPRequest("POST", "/api/sessions/{id}/scan", "202", 2*time.Millisecond, 64)

	healthOK := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/health", "200"))
	if healthOK != 1 {
		t.Errorf("Expected GET /api/health 200 count to be 1, got %f", healthOK)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetCircuitBreakerState("strategy", 2)
	m.RecordCircuitBreakerTrip("strategy")

	if got := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("strategy")); got != 2 {
		t.Errorf("Expected breaker state 2, got %f", got)
	}
	if got := testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("strategy")); got != 1 {
		t.Errorf("Expected 1 trip, got %f", got)
	}
}

func TestTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	timer := m.NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.ObserveExternalAPI("nasdaq", "screener")

	if timer.Duration() < 5*time.Millisecond {
		t.Errorf("Expected duration >= 5ms, got %v", timer.Duration())
	}
}
