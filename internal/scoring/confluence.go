package scoring

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/meridianscan/meridian/internal/features"
)

// Canonical component score keys.
const (
	KeyTrendScore       = "trend_score"
	KeyVolumeScore      = "volume_score"
	KeyVolatilityScore  = "volatility_score"
	KeyRSScore          = "rs_score"
	KeyPositioningScore = "positioning_score"
)

// ComponentKeys lists the five canonical confluence components.
var ComponentKeys = []string{
	KeyTrendScore,
	KeyVolumeScore,
	KeyVolatilityScore,
	KeyRSScore,
	KeyPositioningScore,
}

// scoreKeyAliases normalizes short config names to canonical score keys.
var scoreKeyAliases = map[string]string{
	"trend":             KeyTrendScore,
	"trend_score":       KeyTrendScore,
	"volume":            KeyVolumeScore,
	"volume_score":      KeyVolumeScore,
	"volatility":        KeyVolatilityScore,
	"volatility_score":  KeyVolatilityScore,
	"rs":                KeyRSScore,
	"rs_score":          KeyRSScore,
	"positioning":       KeyPositioningScore,
	"positioning_score": KeyPositioningScore,
}

// availabilityFlags maps canonical score keys to their feature flag.
var availabilityFlags = map[string]string{
	KeyTrendScore:       features.FlagTrendData,
	KeyVolumeScore:      features.FlagVolumeData,
	KeyVolatilityScore:  features.FlagVolatilityData,
	KeyRSScore:          features.FlagRSData,
	KeyPositioningScore: features.FlagPositioningData,
}

// ConfluenceResult is the blended outcome for one symbol/timeframe.
type ConfluenceResult struct {
	Score           float64            `json:"confluence_score"`
	Regime          string             `json:"regime"`
	Weights         map[string]float64 `json:"weights"`
	ComponentScores map[string]float64 `json:"component_scores"`
	Confidence      float64            `json:"confidence"`
}

// ResolveWeights picks the weight table for a regime: an explicit table
// wins, then the regime's configured entry, then an equal-weight fallback
// over the five canonical components. The fallback is logged so operators
// can spot unconfigured regimes.
func ResolveWeights(regime string, table map[string]map[string]float64, explicit map[string]float64) map[string]float64 {
	if len(explicit) > 0 {
		return canonicalizeWeights(explicit)
	}
	if raw, ok := table[regime]; ok {
		if w := canonicalizeWeights(raw); len(w) > 0 {
			return w
		}
	}
	log.Warn().Str("regime", regime).Msg("no confluence weights configured for regime, using equal weights")
	equal := 1.0 / float64(len(ComponentKeys))
	w := make(map[string]float64, len(ComponentKeys))
	for _, k := range ComponentKeys {
		w[k] = equal
	}
	return w
}

func canonicalizeWeights(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		canonical, ok := scoreKeyAliases[k]
		if !ok {
			continue
		}
		out[canonical] = v
	}
	return out
}

// ComputeConfluence blends component scores into one 0-100 confluence
// score with an availability-aware weighted average: components whose
// family data is unavailable, or whose value is non-finite, are skipped
// rather than counted as zero. Confidence is the share of configured
// weight that was actually usable, as a percentage.
func ComputeConfluence(scores map[string]float64, feats features.Bundle, regime string, weights map[string]float64) ConfluenceResult {
	result := ConfluenceResult{
		Regime:          regime,
		Weights:         weights,
		ComponentScores: scores,
	}
	if len(weights) == 0 {
		return result
	}

	// Deterministic iteration keeps logs and debug output stable.
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var num, usedWeight, totalWeight float64
	for _, key := range keys {
		w := weights[key]
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		totalWeight += w

		if feats != nil {
			if flag, ok := availabilityFlags[key]; ok {
				if v, present := feats[flag]; present && v < 1.0 {
					continue
				}
			}
		}
		value, ok := scores[key]
		if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		num += w * value
		usedWeight += w
	}

	if usedWeight > 0 {
		result.Score = clamp100(num / usedWeight)
	}
	if totalWeight > 0 {
		result.Confidence = usedWeight / totalWeight * 100.0
	}
	return result
}
