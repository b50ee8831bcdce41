package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"breakout-desk/config"
	"breakout-desk/e2e/mocks"
	"breakout-desk/internal/app"
	"breakout-desk/models"
	"breakout-desk/services"
)

// testEnv is a router backed by a mock strategy service
type testEnv struct {
	mock   *mocks.MockServer
	app    *app.App
	router http.Handler
}

// testConfig returns a test configuration pointing at baseURL
func testConfig(baseURL string) *config.Config {
	cfg := config.NewTestConfig()
	cfg.StrategyAPI.BaseURL = baseURL
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, func(*config.Config) {})
}

func newTestEnvWithConfig(t *testing.T, configure func(*config.Config)) *testEnv {
	t.Helper()
	mock := mocks.NewMockServer()
	t.Cleanup(mock.Close)

	cfg := testConfig(mock.URL())
	configure(cfg)

	a := app.NewFromConfig(cfg)
	handler := NewHandler(a, cfg)
	return &testEnv{mock: mock, app: a, router: NewRouter(handler, cfg)}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSession(t *testing.T) SessionResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeSession(t, w)
}

// settle polls the session until it leaves the loading state
func (e *testEnv) settle(t *testing.T, id string) SessionResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := e.do(t, http.MethodGet, "/api/sessions/"+id, "")
		if w.Code != http.StatusOK {
			t.Fatalf("get session: expected status 200, got %d", w.Code)
		}
		resp := decodeSession(t, w)
		if resp.State.Kind != app.KindLoading {
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session did not leave the loading state")
	return SessionResponse{}
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	return resp
}

func TestHandler_Health(t *testing.T) {
	t.Run("reports ok without breakers", func(t *testing.T) {
		env := newTestEnv(t)
		env.createSession(t)

		w := env.do(t, http.MethodGet, "/api/health", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["status"] != "ok" {
			t.Errorf("expected status ok, got %v", resp["status"])
		}
		if resp["sessions"] != float64(1) {
			t.Errorf("expected 1 session, got %v", resp["sessions"])
		}
		if resp["strategy_service"] != env.mock.URL() {
			t.Errorf("expected strategy_service %s, got %v", env.mock.URL(), resp["strategy_service"])
		}
		if _, ok := resp["circuit_breakers"]; ok {
			t.Error("circuit_breakers should be omitted when disabled")
		}
	})

	t.Run("reports degraded when the breaker is open", func(t *testing.T) {
		env := newTestEnvWithConfig(t, func(cfg *config.Config) {
			cfg.Breaker.Enabled = true
		})
		env.mock.SetEndpointFailure(mocks.PathStrategy, mocks.ServerError())
		session := env.createSession(t)

		for i := 0; i < 5; i++ {
			w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", `{"ticker":"AAPL"}`)
			if w.Code != http.StatusAccepted {
				t.Fatalf("expected status 202, got %d", w.Code)
			}
			env.settle(t, session.ID)
		}

		w := env.do(t, http.MethodGet, "/api/health", "")
		var resp map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["status"] != "degraded" {
			t.Errorf("expected status degraded, got %v", resp["status"])
		}
		if _, ok := resp["circuit_breakers"]; !ok {
			t.Error("expected circuit_breakers in health response")
		}
	})
}

func TestHandler_CreateSession(t *testing.T) {
	env := newTestEnvWithConfig(t, func(cfg *config.Config) {
		cfg.Form.DefaultDollars = "5000"
	})

	resp := env.createSession(t)

	if _, err := app.ParseUUID(resp.ID); err != nil {
		t.Errorf("expected a UUID id, got %q", resp.ID)
	}
	if resp.State.Kind != app.KindIdle {
		t.Errorf("expected idle state, got %s", resp.State.Kind)
	}
	if resp.Form.Dollars != "5000" {
		t.Errorf("expected default dollars 5000, got %s", resp.Form.Dollars)
	}
	if resp.Form.StrategyType != models.StrategyTypeAll {
		t.Errorf("expected default type all, got %s", resp.Form.StrategyType)
	}
}

func TestHandler_CreateSession_Limit(t *testing.T) {
	env := newTestEnvWithConfig(t, func(cfg *config.Config) {
		cfg.HTTP.MaxSessions = 1
	})
	env.createSession(t)

	w := env.do(t, http.MethodPost, "/api/sessions", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestHandler_SessionLookup(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/6f1c1f8e-3f5e-4f4b-9d0a-2d3f4a5b6c7d", http.StatusNotFound},
		{"invalid id", http.MethodGet, "/api/sessions/not-a-uuid", http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/api/sessions/6f1c1f8e-3f5e-4f4b-9d0a-2d3f4a5b6c7d", http.StatusNotFound},
		{"scan unknown", http.MethodPost, "/api/sessions/6f1c1f8e-3f5e-4f4b-9d0a-2d3f4a5b6c7d/scan", http.StatusNotFound},
		{"strategy invalid id", http.MethodPost, "/api/sessions/xyz/strategy", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, "")
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] == "" {
				t.Error("expected error message in response")
			}
		})
	}
}

func TestHandler_DeleteSession(t *testing.T) {
	env := newTestEnv(t)
	session := env.createSession(t)

	w := env.do(t, http.MethodDelete, "/api/sessions/"+session.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/sessions/"+session.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", w.Code)
	}
}

func TestHandler_UpdateForm(t *testing.T) {
	t.Run("applies edits without changing state", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)

		w := env.do(t, http.MethodPut, "/api/sessions/"+session.ID+"/form",
			`{"ticker":" brk.b ","dollars":"2500","type":"swing"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		resp := decodeSession(t, w)
		if resp.Form.Ticker != "BRK.B" {
			t.Errorf("expected ticker BRK.B, got %q", resp.Form.Ticker)
		}
		if resp.Form.Dollars != "2500" {
			t.Errorf("expected dollars 2500, got %q", resp.Form.Dollars)
		}
		if resp.Form.StrategyType != models.StrategyTypeSwing {
			t.Errorf("expected type swing, got %s", resp.Form.StrategyType)
		}
		if resp.State.Kind != app.KindIdle {
			t.Errorf("form edits must not change state, got %s", resp.State.Kind)
		}
		if n := env.mock.RequestCount(mocks.PathStrategy); n != 0 {
			t.Errorf("form edits must not call the service, got %d calls", n)
		}
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)

		env.do(t, http.MethodPut, "/api/sessions/"+session.ID+"/form", `{"ticker":"aapl"}`)
		w := env.do(t, http.MethodPut, "/api/sessions/"+session.ID+"/form", `{"dollars":"800"}`)

		resp := decodeSession(t, w)
		if resp.Form.Ticker != "AAPL" || resp.Form.Dollars != "800" {
			t.Errorf("unexpected form %+v", resp.Form)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)

		tests := []struct {
			name string
			body string
		}{
			{"unknown type", `{"type":"momentum"}`},
			{"invalid json", `{"ticker":`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := env.do(t, http.MethodPut, "/api/sessions/"+session.ID+"/form", tt.body)
				if w.Code != http.StatusBadRequest {
					t.Errorf("expected status 400, got %d", w.Code)
				}
			})
		}
	})
}

func TestHandler_SubmitStrategy(t *testing.T) {
	t.Run("accepts and resolves to strategy results", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)

		w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", `{"ticker":"aapl"}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d", w.Code)
		}

		resp := env.settle(t, session.ID)
		if resp.State.Kind != app.KindStrategyResults {
			t.Fatalf("expected strategy_results, got %s (%s)", resp.State.Kind, resp.State.Message)
		}
		if resp.State.Ticker != "AAPL" {
			t.Errorf("expected ticker AAPL, got %s", resp.State.Ticker)
		}
		if len(resp.State.Strategies) != 2 {
			t.Fatalf("expected 2 strategies, got %d", len(resp.State.Strategies))
		}
		first := resp.State.Strategies[0]
		if first.Title != "SIMPLE" || !first.IsRecommended {
			t.Errorf("unexpected first strategy %+v", first)
		}
		if first.FormattedRisk != "$350.00" {
			t.Errorf("expected formatted risk $350.00, got %s", first.FormattedRisk)
		}
		if resp.Form.Ticker != "AAPL" {
			t.Errorf("expected form ticker to persist, got %q", resp.Form.Ticker)
		}
	})

	t.Run("uses the form ticker when the body is empty", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)
		env.do(t, http.MethodPut, "/api/sessions/"+session.ID+"/form", `{"ticker":"nvda"}`)

		w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", "")
		if w.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d", w.Code)
		}

		resp := env.settle(t, session.ID)
		if resp.State.Ticker != "NVDA" {
			t.Errorf("expected ticker NVDA, got %s", resp.State.Ticker)
		}
	})

	t.Run("no ticker is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)

		w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", `{"ticker":"   "}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		resp := decodeSession(t, w)
		if resp.State.Kind != app.KindIdle {
			t.Errorf("expected idle state, got %s", resp.State.Kind)
		}
		if n := env.mock.RequestCount(mocks.PathStrategy); n != 0 {
			t.Errorf("expected no service calls, got %d", n)
		}
	})

	t.Run("not found surfaces the service detail", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.SetTickerFailure("XYZ", mocks.NotFound("Ticker XYZ not found"))
		session := env.createSession(t)

		env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", `{"ticker":"XYZ"}`)

		resp := env.settle(t, session.ID)
		if resp.State.Kind != app.KindError {
			t.Fatalf("expected error state, got %s", resp.State.Kind)
		}
		if resp.State.Message != "Ticker XYZ not found" {
			t.Errorf("unexpected message %q", resp.State.Message)
		}
	})

	t.Run("server errors stay generic", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.SetEndpointFailure(mocks.PathStrategy, mocks.ServerError())
		session := env.createSession(t)

		env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", `{"ticker":"AAPL"}`)

		resp := env.settle(t, session.ID)
		if resp.State.Message != services.MessageServerError {
			t.Errorf("expected %q, got %q", services.MessageServerError, resp.State.Message)
		}
		if strings.Contains(resp.State.Message, "Traceback") {
			t.Error("server error body leaked into the message")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		env := newTestEnv(t)
		session := env.createSession(t)

		w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/strategy", `{"ticker":`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestHandler_SubmitScan(t *testing.T) {
	env := newTestEnv(t)
	session := env.createSession(t)

	w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/scan", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	resp := env.settle(t, session.ID)
	if resp.State.Kind != app.KindScanResults {
		t.Fatalf("expected scan_results, got %s", resp.State.Kind)
	}
	if len(resp.State.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(resp.State.Candidates))
	}

	msft := resp.State.Candidates[0]
	if msft.Ticker != "MSFT" || msft.FormattedScore != "2.10" {
		t.Errorf("unexpected first candidate %+v", msft)
	}
	if msft.Label != models.StrategyTypeRetest.Label() {
		t.Errorf("expected label %s, got %s", models.StrategyTypeRetest.Label(), msft.Label)
	}

	logs := env.mock.GetRequestLog()
	last := logs[len(logs)-1]
	if last.Query["dollars"] != models.DefaultDollars {
		t.Errorf("expected scan dollars %s, got %q", models.DefaultDollars, last.Query["dollars"])
	}
}

func TestHandler_SelectCandidate(t *testing.T) {
	env := newTestEnv(t)
	session := env.createSession(t)

	env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/scan", "")
	env.settle(t, session.ID)

	w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/candidates/msft/select", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	resp := env.settle(t, session.ID)
	if resp.State.Kind != app.KindStrategyResults {
		t.Fatalf("expected strategy_results, got %s", resp.State.Kind)
	}
	if resp.State.Ticker != "MSFT" {
		t.Errorf("expected ticker MSFT, got %s", resp.State.Ticker)
	}
}

func TestHandler_LoadingSnapshot(t *testing.T) {
	env := newTestEnv(t)
	release := env.mock.Hold(mocks.PathScan)
	session := env.createSession(t)

	w := env.do(t, http.MethodPost, "/api/sessions/"+session.ID+"/scan", "")
	resp := decodeSession(t, w)
	if resp.State.Kind != app.KindLoading {
		t.Errorf("expected loading snapshot, got %s", resp.State.Kind)
	}
	if resp.State.Action != app.ActionScan {
		t.Errorf("expected scan action, got %s", resp.State.Action)
	}

	release()
	if got := env.settle(t, session.ID).State.Kind; got != app.KindScanResults {
		t.Errorf("expected scan_results after release, got %s", got)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sessions"},
		{http.MethodPost, "/api/health"},
		{http.MethodGet, "/api/sessions/abc/scan"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, "")
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", w.Code)
			}
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHandler_CORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
