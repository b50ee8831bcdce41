package app

import (
	"context"
	"strings"
	"sync"

	"breakout-desk/models"
	"breakout-desk/observability"
	"breakout-desk/services"
)

// Observer receives the ViewStates the orchestrator applies, oldest first. A
// state already superseded when its turn comes is skipped. Observers may read
// State and Form but must not call event methods.
type Observer func(ViewState)

// Orchestrator owns the form and the ViewState of one session and turns user
// actions into gateway calls.
//
// Each request takes an id from a monotonically increasing counter. Only a
// completion whose id is still the latest may replace the ViewState, so a slow
// response can never overwrite the result of a newer action.
type Orchestrator struct {
	gateway services.StrategyGateway

	mu     sync.Mutex
	state  ViewState
	form   models.FormParameters
	latest uint64

	observers map[int]Observer
	nextObs   int
	seq       uint64

	// notifyMu serialises observer calls; delivered is the newest seq sent
	notifyMu  sync.Mutex
	delivered uint64
}

// NewOrchestrator creates an orchestrator in the Idle state
func NewOrchestrator(gateway services.StrategyGateway, form models.FormParameters) *Orchestrator {
	form.Ticker = models.NormalizeTicker(form.Ticker)
	if form.StrategyType == "" {
		form.StrategyType = models.DefaultStrategyType
	}
	return &Orchestrator{
		gateway:   gateway,
		state:     Idle{},
		form:      form,
		observers: make(map[int]Observer),
	}
}

// State returns the current ViewState
func (o *Orchestrator) State() ViewState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Form returns the current form parameters
func (o *Orchestrator) Form() models.FormParameters {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.form
}

// Subscribe registers fn for every applied transition and returns a func
// that removes it
func (o *Orchestrator) Subscribe(fn Observer) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextObs
	o.nextObs++
	o.observers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.observers, id)
		o.mu.Unlock()
	}
}

// SetTicker stores ticker text, uppercased
func (o *Orchestrator) SetTicker(ticker string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.form.Ticker = models.NormalizeTicker(ticker)
}

// SetDollars stores the dollar amount as typed
func (o *Orchestrator) SetDollars(dollars string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.form.Dollars = dollars
}

// SetStrategyType stores the selected strategy type
func (o *Orchestrator) SetStrategyType(strategyType models.StrategyType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.form.StrategyType = strategyType
}

// SubmitStrategy requests the setups for ticker, or for the form ticker when
// ticker is empty. It returns false without any transition when both are
// empty. Otherwise it blocks until the request completes.
func (o *Orchestrator) SubmitStrategy(ctx context.Context, ticker string) bool {
	run, ok := o.StartStrategy(ticker)
	if !ok {
		return false
	}
	run(ctx)
	return true
}

// StartStrategy enters Loading for a strategy request and returns the func
// that performs it. ok is false, with no transition, when there is no ticker
// to request.
func (o *Orchestrator) StartStrategy(ticker string) (run func(ctx context.Context), ok bool) {
	ticker = models.NormalizeTicker(strings.TrimSpace(ticker))

	o.mu.Lock()
	if ticker == "" {
		ticker = o.form.Ticker
	}
	if ticker == "" {
		o.mu.Unlock()
		observability.GetMetrics().RecordSkippedAction(string(ActionStrategy))
		observability.Debug("strategy submit skipped, no ticker")
		return nil, false
	}
	form := o.form
	form.Ticker = ticker
	id := o.beginLocked(Loading{Action: ActionStrategy, Ticker: ticker})

	return func(ctx context.Context) {
		logger := observability.WithTicker(ticker)
		logger.Info("requesting strategies", "request_id", id, "type", form.StrategyType)

		strategies, err := o.gateway.FetchStrategy(ctx, ticker, form.Dollars, form.StrategyType)

		o.mu.Lock()
		if !o.isLatestLocked(id, ActionStrategy) {
			o.mu.Unlock()
			logger.Debug("dropping stale strategy result", "request_id", id)
			return
		}
		if err != nil {
			logger.Warn("strategy request failed", "request_id", id, "error", err)
			o.applyLocked(ErrorState{Message: services.UserMessage(err)})
			return
		}
		// The ticker becomes canonical only once results exist for it
		o.form.Ticker = ticker
		o.applyLocked(StrategyResults{Strategies: strategies, Form: form})
	}, true
}

// SubmitScan requests the scan candidates and blocks until the request completes
func (o *Orchestrator) SubmitScan(ctx context.Context) {
	o.StartScan()(ctx)
}

// StartScan enters Loading for a scan and returns the func that performs it
func (o *Orchestrator) StartScan() (run func(ctx context.Context)) {
	o.mu.Lock()
	form := o.form
	id := o.beginLocked(Loading{Action: ActionScan})

	return func(ctx context.Context) {
		observability.Info("requesting scan", "request_id", id, "type", form.StrategyType)

		candidates, err := o.gateway.FetchScan(ctx, form.Dollars, form.StrategyType)

		o.mu.Lock()
		if !o.isLatestLocked(id, ActionScan) {
			o.mu.Unlock()
			observability.Debug("dropping stale scan result", "request_id", id)
			return
		}
		if err != nil {
			observability.Warn("scan request failed", "request_id", id, "error", err)
			o.applyLocked(ErrorState{Message: services.UserMessage(err)})
			return
		}
		o.applyLocked(ScanResults{Candidates: candidates})
	}
}

// SelectCandidate drills into a scan candidate. It behaves exactly like
// SubmitStrategy with the candidate's ticker.
func (o *Orchestrator) SelectCandidate(ctx context.Context, ticker string) bool {
	return o.SubmitStrategy(ctx, ticker)
}

// beginLocked issues a new request id and enters loading. It must be called
// with o.mu held and releases it.
func (o *Orchestrator) beginLocked(loading Loading) uint64 {
	o.latest++
	id := o.latest
	o.applyLocked(loading)
	return id
}

// isLatestLocked reports whether id may still update the state and counts
// the completion as stale otherwise. o.mu must be held.
func (o *Orchestrator) isLatestLocked(id uint64, action Action) bool {
	if id == o.latest {
		return true
	}
	observability.GetMetrics().RecordStaleResult(string(action))
	return false
}

// applyLocked replaces the state, releases o.mu and notifies observers.
// Observers never see an older state after a newer one.
func (o *Orchestrator) applyLocked(state ViewState) {
	o.state = state
	o.seq++
	seq := o.seq
	observers := make([]Observer, 0, len(o.observers))
	for id := 0; id < o.nextObs; id++ {
		if fn, ok := o.observers[id]; ok {
			observers = append(observers, fn)
		}
	}

	metrics := observability.GetMetrics()
	metrics.RecordViewTransition(string(state.Kind()))
	if n, ok := resultCount(state); ok {
		metrics.RecordResultCount(string(state.Kind()), n)
	}

	o.mu.Unlock()

	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()
	if seq < o.delivered {
		return
	}
	o.delivered = seq

	for _, fn := range observers {
		fn(state)
	}
}
