package app

import "breakout-desk/models"

// ViewKind names the variant a ViewState holds
type ViewKind string

const (
	KindIdle            ViewKind = "idle"
	KindLoading         ViewKind = "loading"
	KindError           ViewKind = "error"
	KindStrategyResults ViewKind = "strategy_results"
	KindScanResults     ViewKind = "scan_results"
)

// Action names a user action that issues a request
type Action string

const (
	ActionStrategy Action = "strategy"
	ActionScan     Action = "scan"
)

// ViewState is what the interface currently shows. Exactly one variant is
// held at a time and every transition replaces it wholesale.
type ViewState interface {
	Kind() ViewKind
	viewState()
}

// Idle is the state of a fresh session
type Idle struct{}

// Loading means a request is in flight. Action and Ticker describe the
// latest request only.
type Loading struct {
	Action Action
	Ticker string
}

// ErrorState carries the user-facing message of a failed request
type ErrorState struct {
	Message string
}

// StrategyResults holds the setups for one ticker and the form that produced them
type StrategyResults struct {
	Strategies []models.Strategy
	Form       models.FormParameters
}

// ScanResults holds the candidates of a scan
type ScanResults struct {
	Candidates []models.ScanCandidate
}

func (Idle) Kind() ViewKind            { return KindIdle }
func (Loading) Kind() ViewKind         { return KindLoading }
func (ErrorState) Kind() ViewKind      { return KindError }
func (StrategyResults) Kind() ViewKind { return KindStrategyResults }
func (ScanResults) Kind() ViewKind     { return KindScanResults }

func (Idle) viewState()            {}
func (Loading) viewState()         {}
func (ErrorState) viewState()      {}
func (StrategyResults) viewState() {}
func (ScanResults) viewState()     {}

// Recommended returns the strategy flagged as recommended by the server, if any
func (r StrategyResults) Recommended() (models.Strategy, bool) {
	for _, s := range r.Strategies {
		if s.Recommended() {
			return s, true
		}
	}
	return models.Strategy{}, false
}

// Ticker returns the ticker the results were computed for
func (r StrategyResults) Ticker() string {
	return r.Form.Ticker
}

// resultCount returns how many items a result view holds
func resultCount(state ViewState) (int, bool) {
	switch s := state.(type) {
	case StrategyResults:
		return len(s.Strategies), true
	case ScanResults:
		return len(s.Candidates), true
	}
	return 0, false
}
