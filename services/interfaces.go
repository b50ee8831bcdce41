package services

import (
	"context"

	"breakout-desk/models"
)

// StrategyGateway defines the interface for the remote strategy service
type StrategyGateway interface {
	FetchStrategy(ctx context.Context, ticker, dollars string, strategyType models.StrategyType) ([]models.Strategy, error)
	FetchScan(ctx context.Context, dollars string, strategyType models.StrategyType) ([]models.ScanCandidate, error)
}

// TickerSource defines the interface for downloading the scan universe
type TickerSource interface {
	FetchTickers(ctx context.Context) ([]models.Ticker, error)
}

var _ TickerSource = (*NasdaqService)(nil)
