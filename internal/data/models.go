package data

import "time"

// Bar is a single OHLCV observation for one symbol/timeframe.
// Sequences are always ordered oldest -> newest with strictly
// increasing open times.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// SymbolMeta is basic metadata about a tradable symbol.
type SymbolMeta struct {
	Symbol   string `json:"symbol"`
	Base     string `json:"base"`
	Quote    string `json:"quote"`
	Exchange string `json:"exchange"`
	IsPerp   bool   `json:"is_perp"`
}

// DerivativesMetrics is a per-symbol derivatives snapshot. All fields are
// optional: nil means the venue has no derivatives market for the symbol
// or the field could not be fetched.
type DerivativesMetrics struct {
	Symbol       string   `json:"symbol"`
	FundingRate  *float64 `json:"funding_rate,omitempty"`
	OpenInterest *float64 `json:"open_interest,omitempty"`
	OIChangePct  *float64 `json:"oi_change_pct,omitempty"`
}

// Closes extracts closing prices from a bar sequence.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts volumes from a bar sequence.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
