// Package e2e provides end-to-end testing infrastructure for breakout-desk.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"breakout-desk/config"
	"breakout-desk/e2e/mocks"
	"breakout-desk/internal/api"
	"breakout-desk/internal/app"
)

// TestHarness runs the session API against a mock strategy service.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	app        *app.App
	router     http.Handler
	config     *config.Config
}

// NewTestHarness creates a new test harness. Call Setup before use.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)

	return &TestHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Setup starts the mock service and builds the application around it.
// configure, when given, adjusts the config before the app is built.
func (h *TestHarness) Setup(configure ...func(*config.Config)) error {
	h.mockServer = mocks.NewMockServer()

	h.config = config.NewTestConfig()
	h.config.StrategyAPI.BaseURL = h.mockServer.URL()
	h.config.Universe.NasdaqURL = h.mockServer.URL() + mocks.PathScreener
	for _, fn := range configure {
		fn(h.config)
	}
	if err := h.config.Validate(); err != nil {
		return fmt.Errorf("invalid test config: %w", err)
	}

	h.app = app.NewFromConfig(h.config)
	h.app.Startup(h.ctx)

	handler := api.NewHandler(h.app, h.config)
	h.router = api.NewRouter(handler, h.config)

	return nil
}

// Teardown releases held requests, waits for background actions and stops
// the mock service.
func (h *TestHarness) Teardown() {
	if h.mockServer != nil {
		h.mockServer.Close()
	}

	if h.app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		h.app.Shutdown(shutdownCtx)
		cancel()
	}

	if h.cancel != nil {
		h.cancel()
	}
}

// Context returns the test context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock server for configuring responses.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// App returns the application instance.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Router returns the HTTP router for making requests.
func (h *TestHarness) Router() http.Handler {
	return h.router
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest performs an HTTP request and returns the response.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// CreateSession creates a session and returns its snapshot.
func (h *TestHarness) CreateSession() api.SessionResponse {
	h.t.Helper()

	resp := h.DoRequest(http.MethodPost, "/api/sessions", "")
	if resp.Code != http.StatusCreated {
		h.t.Fatalf("create session: expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	return h.decodeSession(resp)
}

// Session returns the current snapshot of a session.
func (h *TestHarness) Session(id string) api.SessionResponse {
	h.t.Helper()

	resp := h.DoRequest(http.MethodGet, "/api/sessions/"+id, "")
	if resp.Code != http.StatusOK {
		h.t.Fatalf("get session: expected status 200, got %d", resp.Code)
	}
	return h.decodeSession(resp)
}

// WaitForKind polls a session until its state has the wanted kind.
func (h *TestHarness) WaitForKind(id string, kind app.ViewKind) api.SessionResponse {
	h.t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	var last api.SessionResponse
	for time.Now().Before(deadline) {
		last = h.Session(id)
		if last.State.Kind == kind {
			return last
		}
		time.Sleep(10 * time.Millisecond)
	}
	h.t.Fatalf("session %s never reached %s, last state %+v", id, kind, last.State)
	return last
}

// WaitForRequests polls the mock until path has seen n requests.
func (h *TestHarness) WaitForRequests(path string, n int) {
	h.t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.mockServer.RequestCount(path) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("expected %d requests to %s, got %d", n, path, h.mockServer.RequestCount(path))
}

func (h *TestHarness) decodeSession(resp *httptest.ResponseRecorder) api.SessionResponse {
	h.t.Helper()

	var session api.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		h.t.Fatalf("failed to decode session response: %v", err)
	}
	return session
}
