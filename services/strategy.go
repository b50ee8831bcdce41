package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"breakout-desk/models"
	"breakout-desk/observability"
)

// Remote endpoints and the body key each one answers with
const (
	EndpointStrategy = "/strategy"
	EndpointScan     = "/scan"

	keyStrategies = "strategies"
	keyCandidates = "candidates"

	serviceName = "strategy"
)

// StrategyService handles communication with the breakout strategy service.
// Every call is a single GET with no client timeout and no retry.
type StrategyService struct {
	baseURL    string
	httpClient *http.Client
	breakers   *CircuitBreakerRegistry
}

// NewStrategyService creates a new StrategyService for the given origin
func NewStrategyService(baseURL string) *StrategyService {
	return &StrategyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithCircuitBreaker routes calls through the named breaker of registry.
// A nil registry disables it.
func (s *StrategyService) WithCircuitBreaker(registry *CircuitBreakerRegistry) *StrategyService {
	s.breakers = registry
	return s
}

// BaseURL returns the configured service origin
func (s *StrategyService) BaseURL() string {
	return s.baseURL
}

// FetchStrategy returns the setups computed for ticker. The caller guarantees
// ticker is non-empty; the gateway sends what it is given.
func (s *StrategyService) FetchStrategy(ctx context.Context, ticker, dollars string, strategyType models.StrategyType) ([]models.Strategy, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("dollars", dollars)
	params.Set("type", string(strategyType))

	return fetchList[models.Strategy](ctx, s, EndpointStrategy, keyStrategies, params)
}

// FetchScan returns the best setup per symbol of the scan universe.
// An empty dollars value is sent as models.DefaultDollars.
func (s *StrategyService) FetchScan(ctx context.Context, dollars string, strategyType models.StrategyType) ([]models.ScanCandidate, error) {
	if strings.TrimSpace(dollars) == "" {
		dollars = models.DefaultDollars
	}

	params := url.Values{}
	params.Set("dollars", dollars)
	params.Set("type", string(strategyType))

	return fetchList[models.ScanCandidate](ctx, s, EndpointScan, keyCandidates, params)
}

// fetchList performs one GET against endpoint and decodes the list held
// under key. All failures come back as *FetchError.
func fetchList[T any](ctx context.Context, s *StrategyService, endpoint, key string, params url.Values) ([]T, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(serviceName, endpoint)
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI(serviceName, endpoint)

	reqURL := s.baseURL + endpoint + "?" + params.Encode()
	logger := observability.WithEndpoint(endpoint)
	logger.Debug("requesting strategy service", "url", reqURL)

	var items []T
	call := func() error {
		var err error
		items, err = doFetch[T](ctx, s.httpClient, reqURL, key)
		return err
	}

	var err error
	if s.breakers != nil {
		err = s.breakers.Guard(ctx, BreakerStrategy, call)
	} else {
		err = call()
	}

	if err != nil {
		fe := asFetchError(err)
		metrics.RecordExternalAPIError(serviceName, endpoint, string(fe.Kind))
		logger.Warn("strategy service request failed",
			"kind", fe.Kind,
			"status", fe.StatusCode,
			"duration_ms", timer.Duration().Milliseconds(),
			"error", fe.Err)
		return nil, fe
	}

	logger.Info("strategy service request completed",
		"results", len(items),
		"duration_ms", timer.Duration().Milliseconds())
	return items, nil
}

func doFetch[T any](ctx context.Context, client *http.Client, reqURL, key string) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to call %s: %w", reqURL, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformedError(MessageMalformed, fmt.Errorf("failed to decode response: %w", err))
	}

	raw, ok := envelope[key]
	if !ok || string(raw) == "null" {
		return nil, malformedError(fmt.Sprintf("No %s returned", key), fmt.Errorf("response has no %q key", key))
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformedError(MessageMalformed, fmt.Errorf("failed to decode %s: %w", key, err))
	}

	return items, nil
}

// classifyStatus turns a non-success response into a FetchError. Only a 404
// carrying a string detail surfaces server text to the user.
func classifyStatus(status int, body []byte) *FetchError {
	cause := fmt.Errorf("strategy service returned status %d", status)
	if status != http.StatusNotFound {
		return serverError(status, cause)
	}

	var payload struct {
		Detail *string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == nil || *payload.Detail == "" {
		return serverError(status, cause)
	}

	return notFoundError(*payload.Detail)
}

func asFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return transportError(err)
}

// Compile-time interface verification
var _ StrategyGateway = (*StrategyService)(nil)
