// Package alerts turns ranked symbols and the market regime into
// deduplicated alert events, filtered through a small persistent
// per-symbol state file and fanned out to the configured notifiers.
package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GlobalSymbol marks market-wide events that are not tied to one symbol.
const GlobalSymbol = "__GLOBAL__"

// Alert reason codes.
const (
	ReasonHighConfluence   = "HIGH_CONFLUENCE"
	ReasonVolumeSpike      = "VOLUME_SPIKE"
	ReasonSqueezeCandidate = "SQUEEZE_CANDIDATE"
	ReasonRegimeChange     = "REGIME_CHANGE"
)

// DivergenceReason builds the per-timeframe RSI divergence reason code,
// e.g. RSI_BULLISH_DIVERGENCE_4h.
func DivergenceReason(direction, timeframe string) string {
	switch direction {
	case "bearish":
		return fmt.Sprintf("RSI_BEARISH_DIVERGENCE_%s", timeframe)
	default:
		return fmt.Sprintf("RSI_BULLISH_DIVERGENCE_%s", timeframe)
	}
}

// Event is a single alert headed for the notifiers.
type Event struct {
	ID              string             `json:"id"`
	Symbol          string             `json:"symbol"`
	CreatedAt       time.Time          `json:"created_at"`
	Reason          string             `json:"reason"`
	Message         string             `json:"message"`
	ConfluenceScore float64            `json:"confluence_score"`
	ComponentScores map[string]float64 `json:"component_scores,omitempty"`
	Regime          string             `json:"regime,omitempty"`
}

// NewEvent builds an event with a fresh ID.
func NewEvent(symbol, reason, message string, confluence float64, components map[string]float64, regime string, at time.Time) Event {
	return Event{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		CreatedAt:       at,
		Reason:          reason,
		Message:         message,
		ConfluenceScore: confluence,
		ComponentScores: components,
		Regime:          regime,
	}
}

// IsGlobal reports whether the event is market-wide rather than
// symbol-level.
func (e Event) IsGlobal() bool {
	return e.Symbol == GlobalSymbol
}
