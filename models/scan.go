package models

// ScanCandidate is the best-scoring setup found for one symbol during a scan
type ScanCandidate struct {
	Ticker       string       `json:"ticker"`
	BestStrategy StrategyType `json:"best_strategy"`
	BestScore    float64      `json:"best_score"`
	HasSimple    bool         `json:"has_simple"`
	HasSwing     bool         `json:"has_swing"`
	HasRetest    bool         `json:"has_retest"`
}

func (c ScanCandidate) FormattedScore() string {
	return FormatScore(c.BestScore)
}

// Supported lists the strategy types the symbol qualified for, in display order
func (c ScanCandidate) Supported() []StrategyType {
	supported := make([]StrategyType, 0, 3)
	if c.HasSimple {
		supported = append(supported, StrategyTypeSimple)
	}
	if c.HasRetest {
		supported = append(supported, StrategyTypeRetest)
	}
	if c.HasSwing {
		supported = append(supported, StrategyTypeSwing)
	}
	return supported
}
