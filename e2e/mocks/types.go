package mocks

// StrategyPayload is one element of the /strategy response, encoded with
// plain JSON numbers the way the strategy service sends them.
type StrategyPayload struct {
	Strategy      string  `json:"strategy"`
	Entry         float64 `json:"entry"`
	StopLoss      float64 `json:"stop_loss"`
	TakeProfit    float64 `json:"take_profit"`
	Shares        int64   `json:"shares"`
	TotalRisk     float64 `json:"total_risk"`
	TotalProfit   float64 `json:"total_profit"`
	Score         float64 `json:"score"`
	IsRecommended bool    `json:"is_recommended"`
	Notes         string  `json:"notes"`
}

// CandidatePayload is one element of the /scan response.
type CandidatePayload struct {
	Ticker       string  `json:"ticker"`
	BestStrategy string  `json:"best_strategy"`
	BestScore    float64 `json:"best_score"`
	HasSimple    bool    `json:"has_simple"`
	HasSwing     bool    `json:"has_swing"`
	HasRetest    bool    `json:"has_retest"`
}

// Failure is an injected non-success answer for an endpoint.
type Failure struct {
	Status int
	Body   string
}

// NotFound returns a 404 failure carrying detail the way the service reports it.
func NotFound(detail string) Failure {
	return Failure{Status: 404, Body: `{"detail":"` + detail + `"}`}
}

// ServerError returns a 500 failure with a body the client must not surface.
func ServerError() Failure {
	return Failure{Status: 500, Body: `{"detail":"Traceback (most recent call last)"}`}
}

// NasdaqRow is one row of the NASDAQ screener table.
type NasdaqRow struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
