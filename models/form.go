package models

import "strings"

// DefaultDollars is the investment amount sent when the form leaves it empty
const DefaultDollars = "10000"

// FormParameters is the last known state of the request form
type FormParameters struct {
	Ticker       string       `json:"ticker"`
	Dollars      string       `json:"dollars"`
	StrategyType StrategyType `json:"type"`
}

// NewFormParameters creates a form with the given defaults
func NewFormParameters(dollars string, strategyType StrategyType) FormParameters {
	if strategyType == "" {
		strategyType = DefaultStrategyType
	}
	return FormParameters{
		Dollars:      dollars,
		StrategyType: strategyType,
	}
}

// NormalizeTicker applies the only client-side rule for ticker text: uppercase
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(ticker)
}

// DollarsOrDefault returns the dollar amount, falling back to DefaultDollars
func (f FormParameters) DollarsOrDefault() string {
	if strings.TrimSpace(f.Dollars) == "" {
		return DefaultDollars
	}
	return f.Dollars
}
