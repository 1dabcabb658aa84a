// Package patterns holds the discrete chart-pattern detectors. Each
// detector is a pure function of its context and config and emits at most
// one signal per scan.
package patterns

import (
	"github.com/meridianscan/meridian/internal/data"
	"github.com/meridianscan/meridian/internal/features"
)

// Pattern names.
const (
	NameBreakout          = "breakout"
	NamePullback          = "pullback"
	NameVolatilitySqueeze = "volatility_squeeze"
	NameRSIDivergence     = "rsi_divergence"
)

// Directions.
const (
	Bullish = "bullish"
	Bearish = "bearish"
)

// Signal is a typed pattern detection outcome. Strength and Confidence
// are 0-100; Extras carries pattern-specific diagnostics (pivot indices,
// raw deltas) for reporting.
type Signal struct {
	Pattern    string                 `json:"pattern"`
	Symbol     string                 `json:"symbol"`
	Timeframe  string                 `json:"timeframe"`
	Triggered  bool                   `json:"triggered"`
	Direction  string                 `json:"direction,omitempty"`
	Strength   float64                `json:"strength"`
	Confidence float64                `json:"confidence"`
	Notes      string                 `json:"notes,omitempty"`
	Extras     map[string]interface{} `json:"extras,omitempty"`
}

// Context is the standard input handed to every detector: the bar window
// plus the features and scores already computed upstream for the same
// symbol/timeframe.
type Context struct {
	Symbol     string
	Timeframe  string
	Bars       []data.Bar
	Features   features.Bundle
	Scores     map[string]float64
	Confluence float64
	Regime     string
}

func (c Context) score(key string) float64 {
	if c.Scores == nil {
		return 0.0
	}
	return c.Scores[key]
}

func (c Context) feature(key string, def float64) float64 {
	if c.Features == nil {
		return def
	}
	return c.Features.Get(key, def)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pctChange(newVal, oldVal float64) float64 {
	if oldVal == 0 {
		return 0.0
	}
	return (newVal - oldVal) / oldVal * 100.0
}

// highestHigh is the highest high over the last lookback bars, excluding
// the current bar. Returns false when history is too short.
func highestHigh(bars []data.Bar, lookback int) (float64, bool) {
	if lookback <= 0 || len(bars) < lookback+1 {
		return 0.0, false
	}
	window := bars[len(bars)-lookback-1 : len(bars)-1]
	high := window[0].High
	for _, b := range window[1:] {
		if b.High > high {
			high = b.High
		}
	}
	return high, true
}

// lowestLow mirrors highestHigh on the low side.
func lowestLow(bars []data.Bar, lookback int) (float64, bool) {
	if lookback <= 0 || len(bars) < lookback+1 {
		return 0.0, false
	}
	window := bars[len(bars)-lookback-1 : len(bars)-1]
	low := window[0].Low
	for _, b := range window[1:] {
		if b.Low < low {
			low = b.Low
		}
	}
	return low, true
}
