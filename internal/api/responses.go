package api

import (
	"time"

	"breakout-desk/internal/app"
	"breakout-desk/models"
)

// SessionResponse is the snapshot returned by every session endpoint
type SessionResponse struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	State     StateResponse         `json:"state"`
	Form      models.FormParameters `json:"form"`
}

// StateResponse flattens a ViewState; Kind says which fields apply
type StateResponse struct {
	Kind       app.ViewKind           `json:"kind"`
	Action     app.Action             `json:"action,omitempty"`
	Ticker     string                 `json:"ticker,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Strategies []StrategyView         `json:"strategies,omitempty"`
	Candidates []CandidateView        `json:"candidates,omitempty"`
	Form       *models.FormParameters `json:"form,omitempty"`
}

// StrategyView is a strategy with its display facts
type StrategyView struct {
	models.Strategy
	Title          string `json:"title"`
	Label          string `json:"label"`
	FormattedScore string `json:"formatted_score"`
	FormattedRisk  string `json:"formatted_risk"`
}

// CandidateView is a scan candidate with its display facts
type CandidateView struct {
	models.ScanCandidate
	Label          string                `json:"label"`
	FormattedScore string                `json:"formatted_score"`
	Supported      []models.StrategyType `json:"supported"`
}

// NewSessionResponse snapshots a session
func NewSessionResponse(s *app.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID.String(),
		CreatedAt: s.CreatedAt,
		State:     NewStateResponse(s.Orchestrator.State()),
		Form:      s.Orchestrator.Form(),
	}
}

// NewStateResponse converts a ViewState for JSON encoding
func NewStateResponse(state app.ViewState) StateResponse {
	resp := StateResponse{Kind: state.Kind()}

	switch s := state.(type) {
	case app.Loading:
		resp.Action = s.Action
		resp.Ticker = s.Ticker
	case app.ErrorState:
		resp.Message = s.Message
	case app.StrategyResults:
		form := s.Form
		resp.Form = &form
		resp.Ticker = s.Ticker()
		resp.Strategies = make([]StrategyView, len(s.Strategies))
		for i, strategy := range s.Strategies {
			resp.Strategies[i] = StrategyView{
				Strategy:       strategy,
				Title:          strategy.Title(),
				Label:          strategy.Strategy.Label(),
				FormattedScore: strategy.FormattedScore(),
				FormattedRisk:  strategy.FormattedRisk(),
			}
		}
	case app.ScanResults:
		resp.Candidates = make([]CandidateView, len(s.Candidates))
		for i, c := range s.Candidates {
			resp.Candidates[i] = CandidateView{
				ScanCandidate:  c,
				Label:          c.BestStrategy.Label(),
				FormattedScore: c.FormattedScore(),
				Supported:      c.Supported(),
			}
		}
	}

	return resp
}
