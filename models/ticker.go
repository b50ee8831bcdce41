package models

// Ticker is one symbol of the scan universe
type Ticker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
