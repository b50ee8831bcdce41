package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"breakout-desk/internal/app"
	"breakout-desk/models"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleBarStyle.Render("8-EMA Breakout Desk"))
	b.WriteString("\n\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n\n")
	b.WriteString(m.renderState())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(keys))

	return b.String()
}

func (m Model) renderForm() string {
	label := func(text string, f focus) string {
		if m.focus == f {
			return focusLabelStyle.Render(text)
		}
		return labelStyle.Render(text)
	}

	selector := "< " + m.strategyType.Label() + " >"
	if m.focus == focusType {
		selector = focusLabelStyle.Render(selector)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		label("Ticker ", focusTicker), m.ticker.View(), "   ",
		label("Dollars ", focusDollars), m.dollars.View(), "   ",
		label("Type ", focusType), selector,
	)
}

func (m Model) renderState() string {
	switch s := m.state.(type) {
	case app.Loading:
		if s.Action == app.ActionScan {
			return m.spinner.View() + " Scanning tickers..."
		}
		return m.spinner.View() + " Loading strategies for " + tickerStyle.Render(s.Ticker) + "..."
	case app.ErrorState:
		return errorStyle.Render(s.Message)
	case app.StrategyResults:
		return renderStrategies(s)
	case app.ScanResults:
		return renderCandidates(s.Candidates, m.cursor, m.focus == focusResults)
	default:
		return dimStyle.Render("Enter a ticker and press enter, or ctrl+s to scan.")
	}
}

func renderStrategies(results app.StrategyResults) string {
	header := tickerStyle.Render(results.Ticker()) + dimStyle.Render(
		fmt.Sprintf("  $%s  %s", results.Form.DollarsOrDefault(), results.Form.StrategyType.Label()))

	if len(results.Strategies) == 0 {
		return header + "\n\n" + dimStyle.Render("No strategies matched.")
	}

	cards := make([]string, len(results.Strategies))
	for i, s := range results.Strategies {
		cards[i] = renderStrategyCard(s)
	}
	return header + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderStrategyCard(s models.Strategy) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(s.Title()))
	b.WriteString(" " + dimStyle.Render(s.Strategy.Label()))
	if s.Recommended() {
		b.WriteString("\n" + recommendedStyle.Render(" RECOMMENDED "))
	}
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Entry", models.FormatPrice(s.Entry)},
		{"Stop", models.FormatPrice(s.StopLoss)},
		{"Target", models.FormatPrice(s.TakeProfit)},
		{"Shares", fmt.Sprintf("%d", s.Shares)},
		{"Risk", riskStyle.Render(s.FormattedRisk())},
		{"Profit", profitStyle.Render(s.FormattedProfit())},
		{"Score", scoreStyle.Render(s.FormattedScore())},
	}
	for _, row := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-7s", row[0])) + row[1] + "\n")
	}
	if s.Notes != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(32).Render(s.Notes))
	}

	style := cardStyle
	if s.Recommended() {
		style = recommendedCardStyle
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func renderCandidates(candidates []models.ScanCandidate, cursor int, focused bool) string {
	if len(candidates) == 0 {
		return dimStyle.Render("No candidates found.")
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %-8s %-20s %6s  %s", "Ticker", "Best strategy", "Score", "Qualifies")))
	for i, c := range candidates {
		supported := make([]string, 0, 3)
		for _, t := range c.Supported() {
			supported = append(supported, string(t))
		}

		marker := "  "
		if focused && i == cursor {
			marker = "> "
		}
		row := fmt.Sprintf("%s%-8s %-20s %6s  %s",
			marker, c.Ticker, c.BestStrategy.Label(), c.FormattedScore(), strings.Join(supported, ","))
		if focused && i == cursor {
			row = selectedRowStyle.Render(row)
		}
		b.WriteString("\n" + row)
	}
	return b.String()
}
