package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"breakout-desk/internal/api"
	"breakout-desk/internal/app"
	"breakout-desk/models"
)

// printState writes the final view state. An error state is printed and
// also returned so the process exits non-zero.
func printState(w io.Writer, state app.ViewState, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.NewStateResponse(state)); err != nil {
			return err
		}
	} else {
		switch s := state.(type) {
		case app.StrategyResults:
			fmt.Fprintln(w, strategyTable(s))
		case app.ScanResults:
			fmt.Fprintln(w, candidateTable(s.Candidates))
		}
	}

	if e, ok := state.(app.ErrorState); ok {
		return errors.New(e.Message)
	}
	return nil
}

func strategyTable(results app.StrategyResults) string {
	header := fmt.Sprintf("%s  $%s  %s",
		results.Ticker(), results.Form.DollarsOrDefault(), results.Form.StrategyType.Label())
	if len(results.Strategies) == 0 {
		return header + "\nNo strategies matched."
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "STRATEGY", "ENTRY", "STOP", "TARGET", "SHARES", "RISK", "PROFIT", "SCORE", "NOTES")
	for _, s := range results.Strategies {
		mark := ""
		if s.Recommended() {
			mark = "*"
		}
		t.Row(mark, s.Title(),
			models.FormatPrice(s.Entry),
			models.FormatPrice(s.StopLoss),
			models.FormatPrice(s.TakeProfit),
			fmt.Sprintf("%d", s.Shares),
			s.FormattedRisk(),
			s.FormattedProfit(),
			s.FormattedScore(),
			s.Notes)
	}

	out := header + "\n" + t.String()
	if rec, ok := results.Recommended(); ok {
		out += "\n* recommended: " + rec.Strategy.Label()
	}
	return out
}

func candidateTable(candidates []models.ScanCandidate) string {
	if len(candidates) == 0 {
		return "No candidates found."
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TICKER", "BEST STRATEGY", "SCORE", "QUALIFIES")
	for _, c := range candidates {
		supported := make([]string, 0, 3)
		for _, st := range c.Supported() {
			supported = append(supported, string(st))
		}
		t.Row(c.Ticker, c.BestStrategy.Label(), c.FormattedScore(), strings.Join(supported, ","))
	}
	return t.String()
}
