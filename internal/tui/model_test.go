package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"breakout-desk/internal/app"
	"breakout-desk/models"
	"breakout-desk/services"
)

type stubGateway struct {
	mu         sync.Mutex
	tickers    []string
	strategies []models.Strategy
	candidates []models.ScanCandidate
	err        error
}

func (g *stubGateway) FetchStrategy(ctx context.Context, ticker, dollars string, strategyType models.StrategyType) ([]models.Strategy, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tickers = append(g.tickers, ticker)
	return g.strategies, g.err
}

func (g *stubGateway) FetchScan(ctx context.Context, dollars string, strategyType models.StrategyType) ([]models.ScanCandidate, error) {
	return g.candidates, g.err
}

func (g *stubGateway) requested() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.tickers...)
}

var _ services.StrategyGateway = (*stubGateway)(nil)

func newStubGateway() *stubGateway {
	return &stubGateway{
		strategies: []models.Strategy{
			{
				Strategy:      models.StrategyTypeSimple,
				Entry:         decimal.RequireFromString("101.5"),
				StopLoss:      decimal.RequireFromString("98"),
				TakeProfit:    decimal.RequireFromString("110"),
				Shares:        100,
				TotalRisk:     decimal.RequireFromString("350"),
				TotalProfit:   decimal.RequireFromString("850"),
				Score:         1.82,
				IsRecommended: true,
				Notes:         "Closed above the 20-day high",
			},
		},
		candidates: []models.ScanCandidate{
			{Ticker: "MSFT", BestStrategy: models.StrategyTypeRetest, BestScore: 2.1, HasRetest: true},
			{Ticker: "NVDA", BestStrategy: models.StrategyTypeSimple, BestScore: 1.65, HasSimple: true},
		},
	}
}

func newTestModel(gateway services.StrategyGateway) (Model, *app.Orchestrator) {
	o := app.NewOrchestrator(gateway, models.NewFormParameters("", models.DefaultStrategyType))
	return New(context.Background(), o), o
}

// press feeds a key to the model and runs the resulting command, if any,
// then delivers the orchestrator's state the way the observer would
func press(t *testing.T, m Model, o *app.Orchestrator, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		cmd()
	}
	next, _ = m.Update(StateMsg{State: o.State()})
	return next.(Model)
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestModel_TickerInputUppercases(t *testing.T) {
	m, o := newTestModel(newStubGateway())

	m = typeText(m, "brk.b")

	if got := m.ticker.Value(); got != "BRK.B" {
		t.Errorf("input value = %q, want BRK.B", got)
	}
	if got := o.Form().Ticker; got != "BRK.B" {
		t.Errorf("form ticker = %q, want BRK.B", got)
	}
}

func TestModel_DollarsInput(t *testing.T) {
	m, o := newTestModel(newStubGateway())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(next.(Model), "2500")

	if got := o.Form().Dollars; got != "2500" {
		t.Errorf("form dollars = %q, want 2500", got)
	}
	if got := o.Form().Ticker; got != "" {
		t.Errorf("ticker should be untouched, got %q", got)
	}
}

func TestModel_CycleStrategyType(t *testing.T) {
	m, o := newTestModel(newStubGateway())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)

	if m.strategyType != models.StrategyTypeSimple {
		t.Errorf("type = %s, want simple", m.strategyType)
	}
	if o.Form().StrategyType != models.StrategyTypeSimple {
		t.Errorf("form type = %s, want simple", o.Form().StrategyType)
	}
	if !strings.Contains(m.View(), "Simple Breakout") {
		t.Error("selector should show the new label")
	}
}

func TestModel_SubmitWithoutTicker(t *testing.T) {
	gateway := newStubGateway()
	m, o := newTestModel(gateway)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("expected no command without a ticker")
	}
	if _, ok := o.State().(app.Idle); !ok {
		t.Errorf("expected Idle, got %#v", o.State())
	}
	if len(gateway.requested()) != 0 {
		t.Error("expected no gateway call")
	}
}

func TestModel_SubmitStrategy(t *testing.T) {
	m, o := newTestModel(newStubGateway())
	m = typeText(m, "aapl")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	loading, ok := o.State().(app.Loading)
	if !ok || loading.Ticker != "AAPL" {
		t.Fatalf("expected Loading for AAPL before the command runs, got %#v", o.State())
	}
	if _, ok := m.State().(app.Idle); !ok {
		t.Error("model state should change only on StateMsg")
	}

	next, _ = m.Update(StateMsg{State: o.State()})
	m = next.(Model)
	if !strings.Contains(m.View(), "Loading strategies for") {
		t.Error("expected loading line in view")
	}

	cmd()
	next, _ = m.Update(StateMsg{State: o.State()})
	m = next.(Model)

	if _, ok := m.State().(app.StrategyResults); !ok {
		t.Fatalf("expected StrategyResults, got %#v", m.State())
	}
	view := m.View()
	for _, want := range []string{"SIMPLE", "RECOMMENDED", "$350.00", "101.50", "1.82", "Closed above the 20-day high"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ErrorState(t *testing.T) {
	m, _ := newTestModel(newStubGateway())

	next, _ := m.Update(StateMsg{State: app.ErrorState{Message: "Ticker XYZ not found"}})

	if !strings.Contains(next.(Model).View(), "Ticker XYZ not found") {
		t.Error("expected error message in view")
	}
}

func TestModel_ScanAndSelectCandidate(t *testing.T) {
	gateway := newStubGateway()
	m, o := newTestModel(gateway)

	m = press(t, m, o, tea.KeyMsg{Type: tea.KeyCtrlS})
	if _, ok := m.State().(app.ScanResults); !ok {
		t.Fatalf("expected ScanResults, got %#v", m.State())
	}
	if view := m.View(); !strings.Contains(view, "MSFT") || !strings.Contains(view, "Retest Breakout") {
		t.Error("expected candidates in view")
	}

	// first arrow focuses the list, second moves to NVDA
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	if m.focus != focusResults || m.cursor != 1 {
		t.Fatalf("focus = %d cursor = %d, want results at 1", m.focus, m.cursor)
	}

	m = press(t, m, o, tea.KeyMsg{Type: tea.KeyEnter})

	results, ok := m.State().(app.StrategyResults)
	if !ok {
		t.Fatalf("expected StrategyResults, got %#v", m.State())
	}
	if results.Ticker() != "NVDA" {
		t.Errorf("ticker = %s, want NVDA", results.Ticker())
	}
	if got := gateway.requested(); len(got) != 1 || got[0] != "NVDA" {
		t.Errorf("gateway tickers = %v, want [NVDA]", got)
	}
	if m.ticker.Value() != "NVDA" {
		t.Errorf("ticker input = %q, want NVDA", m.ticker.Value())
	}
	if m.focus != focusTicker {
		t.Error("focus should return to the form once the list is gone")
	}
}

func TestModel_CursorBounds(t *testing.T) {
	m, o := newTestModel(newStubGateway())
	m = press(t, m, o, tea.KeyMsg{Type: tea.KeyCtrlS})

	for i := 0; i < 5; i++ {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m = next.(Model)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want clamped to 1", m.cursor)
	}

	for i := 0; i < 5; i++ {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
		m = next.(Model)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.cursor)
	}
}

func TestModel_ArrowsIgnoredWithoutCandidates(t *testing.T) {
	m, _ := newTestModel(newStubGateway())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})

	if next.(Model).focus != focusTicker {
		t.Error("arrows should not move focus without scan results")
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(newStubGateway())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
