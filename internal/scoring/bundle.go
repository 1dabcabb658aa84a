package scoring

import (
	"strings"

	"github.com/meridianscan/meridian/internal/features"
)

// ScoreBundle is the full scoring outcome for one symbol/timeframe: the
// merged feature bundle, the five component scores, the blended confluence
// result and any pattern labels attached downstream. It is the unit the
// ranking and alert stages operate on.
type ScoreBundle struct {
	Symbol          string             `json:"symbol"`
	Timeframe       string             `json:"timeframe"`
	Features        features.Bundle    `json:"features"`
	Scores          map[string]float64 `json:"scores"`
	ConfluenceScore float64            `json:"confluence_score"`
	Confidence      float64            `json:"confidence"`
	Regime          string             `json:"regime"`
	Weights         map[string]float64 `json:"weights"`
	Patterns        []string           `json:"patterns,omitempty"`
}

// Score returns a component score by canonical key, 0 when absent.
func (b ScoreBundle) Score(key string) float64 {
	if b.Scores == nil {
		return 0.0
	}
	return b.Scores[key]
}

// HasPattern reports whether any attached pattern label contains name,
// case-insensitively.
func (b ScoreBundle) HasPattern(name string) bool {
	needle := strings.ToLower(name)
	for _, p := range b.Patterns {
		if strings.Contains(strings.ToLower(p), needle) {
			return true
		}
	}
	return false
}
