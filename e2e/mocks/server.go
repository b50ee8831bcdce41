// Package mocks provides an HTTP mock of the strategy service and the NASDAQ
// screener for tests and the standalone e2e server.
package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Endpoint paths served by the mock
const (
	PathStrategy = "/strategy"
	PathScan     = "/scan"
	PathScreener = "/api/screener/stocks"
)

// MockServer provides configurable responses for the strategy service.
type MockServer struct {
	mu     sync.RWMutex
	server *httptest.Server

	// Response configurations
	strategies       map[string][]StrategyPayload // key: upper-case ticker
	defaultStrategy  []StrategyPayload
	candidates       []CandidatePayload
	nasdaqRows       []NasdaqRow
	tickerFailures   map[string]Failure
	endpointFailures map[string]Failure

	// Requests to a held endpoint block until released
	holds map[string]*hold

	// Request tracking for assertions
	requestLog []RequestLog
}

// RequestLog records incoming requests for test assertions.
type RequestLog struct {
	Method string
	Path   string
	Query  map[string]string
}

// NewMockServer creates and starts a mock server with default responses.
func NewMockServer() *MockServer {
	m := NewMockHandler()
	m.server = httptest.NewServer(m)
	return m
}

// NewMockHandler creates a mock with default responses that is not bound to a
// listener. Serve it with any http.Server.
func NewMockHandler() *MockServer {
	m := &MockServer{
		strategies:       make(map[string][]StrategyPayload),
		tickerFailures:   make(map[string]Failure),
		endpointFailures: make(map[string]Failure),
		holds:            make(map[string]*hold),
		requestLog:       make([]RequestLog, 0),
	}
	m.setDefaults()
	return m
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close releases held requests and shuts down the mock server.
func (m *MockServer) Close() {
	m.mu.Lock()
	for path, h := range m.holds {
		h.release()
		delete(m.holds, path)
	}
	m.mu.Unlock()

	if m.server != nil {
		m.server.Close()
	}
}

// ServeHTTP implements http.Handler to route requests to the mock handlers.
func (m *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := make(map[string]string)
	for key := range r.URL.Query() {
		query[key] = r.URL.Query().Get(key)
	}

	m.mu.Lock()
	m.requestLog = append(m.requestLog, RequestLog{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  query,
	})
	held := m.holds[r.URL.Path]
	m.mu.Unlock()

	if held != nil {
		select {
		case <-held.ch:
		case <-r.Context().Done():
			return
		}
	}

	switch r.URL.Path {
	case PathStrategy:
		m.handleStrategy(w, r)
	case PathScan:
		m.handleScan(w, r)
	case PathScreener:
		m.handleScreener(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

// GetRequestLog returns all logged requests for assertions.
func (m *MockServer) GetRequestLog() []RequestLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RequestLog{}, m.requestLog...)
}

// RequestCount returns how many requests reached path.
func (m *MockServer) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, req := range m.requestLog {
		if req.Path == path {
			count++
		}
	}
	return count
}

// ClearRequestLog clears the request log.
func (m *MockServer) ClearRequestLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestLog = make([]RequestLog, 0)
}

// SetStrategies configures the /strategy response for ticker.
func (m *MockServer) SetStrategies(ticker string, strategies []StrategyPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[strings.ToUpper(ticker)] = strategies
}

// SetCandidates configures the /scan response.
func (m *MockServer) SetCandidates(candidates []CandidatePayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = candidates
}

// SetNasdaqRows configures the screener table.
func (m *MockServer) SetNasdaqRows(rows []NasdaqRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nasdaqRows = rows
}

// SetTickerFailure makes /strategy fail for one ticker only.
func (m *MockServer) SetTickerFailure(ticker string, failure Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickerFailures[strings.ToUpper(ticker)] = failure
}

// SetEndpointFailure makes every request to path fail.
func (m *MockServer) SetEndpointFailure(path string, failure Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpointFailures[path] = failure
}

// ClearFailures removes every injected failure.
func (m *MockServer) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickerFailures = make(map[string]Failure)
	m.endpointFailures = make(map[string]Failure)
}

type hold struct {
	ch   chan struct{}
	once sync.Once
}

func (h *hold) release() {
	h.once.Do(func() { close(h.ch) })
}

// Hold blocks requests to path until the returned release func is called.
// Requests already waiting are released together.
func (m *MockServer) Hold(path string) (release func()) {
	h := &hold{ch: make(chan struct{})}

	m.mu.Lock()
	m.holds[path] = h
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if m.holds[path] == h {
			delete(m.holds, path)
		}
		m.mu.Unlock()
		h.release()
	}
}

func (m *MockServer) setDefaults() {
	m.defaultStrategy = []StrategyPayload{
		{
			Strategy:      "simple",
			Entry:         101.50,
			StopLoss:      98.00,
			TakeProfit:    110.00,
			Shares:        100,
			TotalRisk:     350.00,
			TotalProfit:   850.00,
			Score:         1.82,
			IsRecommended: true,
			Notes:         "Closed above 20-day high on 1.8x average volume",
		},
		{
			Strategy:      "swing",
			Entry:         102.25,
			StopLoss:      96.40,
			TakeProfit:    114.00,
			Shares:        60,
			TotalRisk:     351.00,
			TotalProfit:   705.00,
			Score:         0.94,
			IsRecommended: false,
			Notes:         "Swing high cleared, volume unconfirmed",
		},
	}

	m.candidates = []CandidatePayload{
		{Ticker: "MSFT", BestStrategy: "retest", BestScore: 2.10, HasSimple: true, HasRetest: true},
		{Ticker: "NVDA", BestStrategy: "simple", BestScore: 1.65, HasSimple: true, HasSwing: true},
		{Ticker: "AMD", BestStrategy: "swing", BestScore: 1.12, HasSwing: true},
	}

	m.nasdaqRows = []NasdaqRow{
		{Symbol: "AAPL", Name: "Apple Inc. Common Stock"},
		{Symbol: "MSFT", Name: "Microsoft Corporation Common Stock"},
		{Symbol: "NVDA", Name: "NVIDIA Corporation Common Stock"},
	}
}

func (m *MockServer) handleStrategy(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))

	m.mu.RLock()
	failure, failed := m.endpointFailures[PathStrategy]
	if !failed {
		failure, failed = m.tickerFailures[ticker]
	}
	strategies, ok := m.strategies[ticker]
	if !ok {
		strategies = m.defaultStrategy
	}
	m.mu.RUnlock()

	if failed {
		writeFailure(w, failure)
		return
	}

	if strategies == nil {
		strategies = []StrategyPayload{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": strategies})
}

func (m *MockServer) handleScan(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	failure, failed := m.endpointFailures[PathScan]
	candidates := m.candidates
	m.mu.RUnlock()

	if failed {
		writeFailure(w, failure)
		return
	}

	if candidates == nil {
		candidates = []CandidatePayload{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

func (m *MockServer) handleScreener(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	failure, failed := m.endpointFailures[PathScreener]
	rows := m.nasdaqRows
	m.mu.RUnlock()

	if failed {
		writeFailure(w, failure)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"table": map[string]any{"rows": rows},
		},
	})
}

func writeFailure(w http.ResponseWriter, failure Failure) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(failure.Status)
	w.Write([]byte(failure.Body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
