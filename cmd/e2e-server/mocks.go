package main

import (
	"os"
	"strings"

	"breakout-desk/e2e/mocks"
	"breakout-desk/observability"
)

// seedFixtures adds the scenarios browser tests rely on to the default
// mock responses:
//
//	XYZ      404 with a "not found" detail
//	CRASH    500 with a body that must never reach the user
//	FLAT     an empty strategy list
//	BRK.B    a single retest setup, exercising tickers with punctuation
//
// E2E_HOLD_PATHS (comma separated, e.g. "/scan") makes those endpoints block
// until the server shuts down, for loading-state tests.
func seedFixtures(m *mocks.MockServer) {
	m.SetTickerFailure("XYZ", mocks.NotFound("Ticker XYZ not found"))
	m.SetTickerFailure("CRASH", mocks.ServerError())
	m.SetStrategies("FLAT", []mocks.StrategyPayload{})
	m.SetStrategies("BRK.B", []mocks.StrategyPayload{
		{
			Strategy:      "retest",
			Entry:         412.80,
			StopLoss:      405.10,
			TakeProfit:    431.00,
			Shares:        45,
			TotalRisk:     346.50,
			TotalProfit:   819.00,
			Score:         2.36,
			IsRecommended: true,
			Notes:         "Retested the breakout level and held",
		},
	})

	for _, path := range strings.Split(os.Getenv("E2E_HOLD_PATHS"), ",") {
		if path = strings.TrimSpace(path); path != "" {
			m.Hold(path)
			observability.Info("holding mock endpoint", "path", path)
		}
	}
}
