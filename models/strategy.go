package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StrategyType identifies a breakout rule understood by the strategy service
type StrategyType string

const (
	StrategyTypeSimple StrategyType = "simple"
	StrategyTypeRetest StrategyType = "retest"
	StrategyTypeSwing  StrategyType = "swing"
	StrategyTypeAll    StrategyType = "all"
)

// DefaultStrategyType is the selector value a fresh form starts with
const DefaultStrategyType = StrategyTypeAll

var strategyTypeLabels = map[StrategyType]string{
	StrategyTypeSimple: "Simple Breakout",
	StrategyTypeRetest: "Retest Breakout",
	StrategyTypeSwing:  "Swing-High Breakout",
	StrategyTypeAll:    "All Strategies",
}

// StrategyTypes returns every selectable strategy type in display order
func StrategyTypes() []StrategyType {
	return []StrategyType{StrategyTypeSimple, StrategyTypeRetest, StrategyTypeSwing, StrategyTypeAll}
}

// ParseStrategyType converts a selector code into a StrategyType
func ParseStrategyType(s string) (StrategyType, error) {
	t := StrategyType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := strategyTypeLabels[t]; !ok {
		return "", fmt.Errorf("unknown strategy type %q (want simple, retest, swing or all)", s)
	}
	return t, nil
}

// Label returns the display label for the strategy type.
// Unknown codes are shown as-is.
func (t StrategyType) Label() string {
	if label, ok := strategyTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Next cycles through the selector values, wrapping after "all"
func (t StrategyType) Next() StrategyType {
	types := StrategyTypes()
	for i, candidate := range types {
		if candidate == t {
			return types[(i+1)%len(types)]
		}
	}
	return DefaultStrategyType
}

// Strategy is one trade setup computed by the strategy service
type Strategy struct {
	Strategy      StrategyType    `json:"strategy"`
	Entry         decimal.Decimal `json:"entry"`
	StopLoss      decimal.Decimal `json:"stop_loss"`
	TakeProfit    decimal.Decimal `json:"take_profit"`
	Shares        int64           `json:"shares"`
	TotalRisk     decimal.Decimal `json:"total_risk"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	Score         float64         `json:"score"`
	IsRecommended bool            `json:"is_recommended"`
	Notes         string          `json:"notes"`
}

// Recommended reports the server-computed recommendation flag
func (s Strategy) Recommended() bool {
	return s.IsRecommended
}

// Title is the card heading for the strategy
func (s Strategy) Title() string {
	return strings.ToUpper(string(s.Strategy))
}

func (s Strategy) FormattedScore() string {
	return FormatScore(s.Score)
}

func (s Strategy) FormattedRisk() string {
	return FormatCurrency(s.TotalRisk)
}

func (s Strategy) FormattedProfit() string {
	return FormatCurrency(s.TotalProfit)
}

// FormatScore renders a score with two decimal places
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

// FormatCurrency renders an amount as dollars with two decimal places
func FormatCurrency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

// FormatPrice renders a price with two decimal places
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2)
}
