// Package tui is a terminal front end for one orchestrator: a request form
// above a results pane that shows either strategy cards or scan candidates.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"breakout-desk/internal/app"
	"breakout-desk/models"
)

// StateMsg delivers an applied ViewState to the program
type StateMsg struct {
	State app.ViewState
}

type focus int

const (
	focusTicker focus = iota
	focusDollars
	focusType
	focusResults
	focusCount
)

// Model is the bubbletea model. The view state is only ever taken from
// StateMsg so the pane follows the orchestrator's transition order.
type Model struct {
	ctx          context.Context
	orchestrator *app.Orchestrator

	ticker       textinput.Model
	dollars      textinput.Model
	strategyType models.StrategyType
	focus        focus

	state   app.ViewState
	cursor  int
	spinner spinner.Model
	help    help.Model
	width   int
}

// New creates a model driving o. Actions run with ctx.
func New(ctx context.Context, o *app.Orchestrator) Model {
	form := o.Form()

	ticker := textinput.New()
	ticker.Prompt = ""
	ticker.Placeholder = "AAPL"
	ticker.CharLimit = 16
	ticker.SetValue(form.Ticker)
	ticker.Focus()

	dollars := textinput.New()
	dollars.Prompt = "$"
	dollars.Placeholder = models.DefaultDollars
	dollars.CharLimit = 12
	dollars.SetValue(form.Dollars)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:          ctx,
		orchestrator: o,
		ticker:       ticker,
		dollars:      dollars,
		strategyType: form.StrategyType,
		state:        o.State(),
		spinner:      sp,
		help:         help.New(),
	}
}

// State returns the view state the model currently renders
func (m Model) State() app.ViewState {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = msg.State
		m.cursor = 0
		if results, ok := m.state.(app.StrategyResults); ok {
			m.ticker.SetValue(results.Ticker())
		}
		if _, ok := m.state.(app.ScanResults); !ok && m.focus == focusResults {
			m.setFocus(focusTicker)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Scan):
		return m, m.run(m.orchestrator.StartScan())

	case key.Matches(msg, keys.Submit):
		var ticker string
		if m.focus == focusResults {
			if c, ok := m.selectedCandidate(); ok {
				ticker = c.Ticker
			}
		}
		run, ok := m.orchestrator.StartStrategy(ticker)
		if !ok {
			return m, nil
		}
		return m, m.run(run)

	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		m.moveCursor(key.Matches(msg, keys.Down))
		return m, nil

	case key.Matches(msg, keys.NextType):
		m.cycleType()
		return m, nil

	case key.Matches(msg, keys.Next):
		m.setFocus((m.focus + 1) % m.focusLimit())
		return m, nil

	case key.Matches(msg, keys.Prev):
		limit := m.focusLimit()
		m.setFocus((m.focus + limit - 1) % limit)
		return m, nil
	}

	switch m.focus {
	case focusTicker:
		var cmd tea.Cmd
		m.ticker, cmd = m.ticker.Update(msg)
		if upper := models.NormalizeTicker(m.ticker.Value()); upper != m.ticker.Value() {
			m.ticker.SetValue(upper)
		}
		m.orchestrator.SetTicker(strings.TrimSpace(m.ticker.Value()))
		return m, cmd

	case focusDollars:
		var cmd tea.Cmd
		m.dollars, cmd = m.dollars.Update(msg)
		m.orchestrator.SetDollars(strings.TrimSpace(m.dollars.Value()))
		return m, cmd

	case focusType:
		switch msg.String() {
		case " ", "left", "right":
			m.cycleType()
		}
	}

	return m, nil
}

// run performs an action off the update loop. Its result reaches the
// model as a StateMsg from the orchestrator observer.
func (m Model) run(action func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		action(ctx)
		return nil
	}
}

func (m *Model) cycleType() {
	m.strategyType = m.strategyType.Next()
	m.orchestrator.SetStrategyType(m.strategyType)
}

func (m *Model) moveCursor(down bool) {
	scan, ok := m.state.(app.ScanResults)
	if !ok || len(scan.Candidates) == 0 {
		return
	}
	if m.focus != focusResults {
		m.setFocus(focusResults)
		return
	}
	if down && m.cursor < len(scan.Candidates)-1 {
		m.cursor++
	} else if !down && m.cursor > 0 {
		m.cursor--
	}
}

func (m Model) selectedCandidate() (models.ScanCandidate, bool) {
	scan, ok := m.state.(app.ScanResults)
	if !ok || m.cursor >= len(scan.Candidates) {
		return models.ScanCandidate{}, false
	}
	return scan.Candidates[m.cursor], true
}

// focusLimit excludes the results pane unless there are candidates to pick
func (m Model) focusLimit() focus {
	if scan, ok := m.state.(app.ScanResults); ok && len(scan.Candidates) > 0 {
		return focusCount
	}
	return focusResults
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.ticker.Blur()
	m.dollars.Blur()
	switch f {
	case focusTicker:
		m.ticker.Focus()
	case focusDollars:
		m.dollars.Focus()
	}
}
