package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"breakout-desk/models"
	"breakout-desk/observability"
)

// NasdaqService downloads the NASDAQ stock screener table
type NasdaqService struct {
	screenerURL string
	httpClient  *http.Client
}

// NewNasdaqService creates a new NasdaqService for the given screener URL
func NewNasdaqService(screenerURL string) *NasdaqService {
	return &NasdaqService{
		screenerURL: screenerURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type nasdaqScreenerResponse struct {
	Data *struct {
		Table *struct {
			Rows []struct {
				Symbol string `json:"symbol"`
				Name   string `json:"name"`
			} `json:"rows"`
		} `json:"table"`
	} `json:"data"`
}

// FetchTickers returns every symbol and company name listed by the screener
func (s *NasdaqService) FetchTickers(ctx context.Context) ([]models.Ticker, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("nasdaq", "screener")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("nasdaq", "screener")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.screenerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// The screener rejects requests without a browser user agent
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordExternalAPIError("nasdaq", "screener", "transport")
		return nil, fmt.Errorf("failed to fetch screener: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordExternalAPIError("nasdaq", "screener", "status")
		return nil, fmt.Errorf("nasdaq screener returned status %d", resp.StatusCode)
	}

	var result nasdaqScreenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.RecordExternalAPIError("nasdaq", "screener", "decode")
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Data == nil || result.Data.Table == nil {
		metrics.RecordExternalAPIError("nasdaq", "screener", "decode")
		return nil, fmt.Errorf("nasdaq screener response has no data.table")
	}

	tickers := make([]models.Ticker, 0, len(result.Data.Table.Rows))
	for _, row := range result.Data.Table.Rows {
		symbol := strings.TrimSpace(row.Symbol)
		if symbol == "" {
			continue
		}
		tickers = append(tickers, models.Ticker{
			Symbol: symbol,
			Name:   strings.TrimSpace(row.Name),
		})
	}

	observability.Info("fetched ticker universe",
		"count", len(tickers),
		"duration_ms", timer.Duration().Milliseconds())

	return tickers, nil
}

// SaveTickers writes tickers to path as an indented JSON array
func SaveTickers(path string, tickers []models.Ticker) error {
	if tickers == nil {
		tickers = []models.Ticker{}
	}

	data, err := json.MarshalIndent(tickers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tickers: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
