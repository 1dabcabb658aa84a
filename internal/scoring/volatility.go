package scoring

import "github.com/meridianscan/meridian/internal/features"

// Volatility blend weights. Compressed, quiet markets score high.
const (
	volatilityWeightATR         = 0.30
	volatilityWeightBBWidth     = 0.35
	volatilityWeightContraction = 0.35

	atrScoreScale     = 5.0
	bbWidthScoreScale = 10.0
)

// ScoreVolatility normalizes the volatility feature family. Low ATR%, a
// narrow Bollinger band and a contracting ATR ratio all push the score up.
func ScoreVolatility(b features.Bundle) ScoreResult {
	atrPct := b.Get(features.KeyVolatilityATRPct, 0.0)
	bbWidthPct := b.Get(features.KeyVolatilityBBWidthPct, 0.0)
	contraction := b.Get(features.KeyVolatilityContraction, 1.0)

	if !b.Has(features.FlagVolatilityData) {
		return ScoreResult{
			Score: NeutralScore,
			Features: features.Bundle{
				features.KeyVolatilityATRPct:      atrPct,
				features.KeyVolatilityBBWidthPct:  bbWidthPct,
				features.KeyVolatilityContraction: contraction,
				features.FlagVolatilityData:       0.0,
			},
		}
	}

	sATR := inverseScaleScore(atrPct, atrScoreScale)
	sBB := inverseScaleScore(bbWidthPct, bbWidthScoreScale)
	sContr := contractionScore(contraction)

	score := volatilityWeightATR*sATR +
		volatilityWeightBBWidth*sBB +
		volatilityWeightContraction*sContr

	return ScoreResult{
		Score:     clamp100(score),
		Available: true,
		Features: features.Bundle{
			features.KeyVolatilityATRPct:      atrPct,
			features.KeyVolatilityBBWidthPct:  bbWidthPct,
			features.KeyVolatilityContraction: contraction,
			"volatility_atr_score":            sATR,
			"volatility_bb_width_score":       sBB,
			"volatility_contraction_score":    sContr,
			features.FlagVolatilityData:       1.0,
		},
	}
}

// inverseScaleScore maps a non-negative magnitude to 100/(1+x/scale):
// higher input, lower score.
func inverseScaleScore(x, scale float64) float64 {
	if x < 0 {
		x = 0.0
	}
	return clamp100(100.0 / (1.0 + x/scale))
}

// contractionScore rewards a contracting ATR ratio: 100 at ratio <= 0,
// linearly down to 0 at ratio >= 2.
func contractionScore(ratio float64) float64 {
	if ratio <= 0 {
		return 100.0
	}
	if ratio >= 2.0 {
		return 0.0
	}
	return clamp100((2.0 - ratio) / 2.0 * 100.0)
}
