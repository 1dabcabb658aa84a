package scoring

import "github.com/meridianscan/meridian/internal/features"

// Trend blend weights.
const (
	trendWeightAlignment   = 0.35
	trendWeightPersistence = 0.30
	trendWeightExtension   = 0.20
	trendWeightSlope       = 0.15

	trendIdealBandPct  = 5.0 // % distance from MA considered healthy
	trendSlopeMaxAbs   = 5.0 // % slope clamped to this magnitude
	trendExtensionCost = 5.0 // points lost per % beyond the ideal band
)

// ScoreTrend normalizes the trend feature family into a 0-100 score.
func ScoreTrend(b features.Bundle) ScoreResult {
	align := b.Get(features.KeyTrendMAAlignment, 0.0)
	persistence := b.Get(features.KeyTrendPersistence, 0.5)
	distPct := b.Get(features.KeyTrendDistanceFromMA, 0.0)
	slopePct := b.Get(features.KeyTrendMASlope, 0.0)

	if !b.Has(features.FlagTrendData) {
		return ScoreResult{
			Score: NeutralScore,
			Features: features.Bundle{
				features.KeyTrendMAAlignment:    align,
				features.KeyTrendPersistence:    persistence,
				features.KeyTrendDistanceFromMA: distPct,
				features.KeyTrendMASlope:        slopePct,
				features.FlagTrendData:          0.0,
			},
		}
	}

	sAlign := alignmentScore(align)
	sPersist := clamp100(persistence * 100.0)
	sExt := extensionScore(distPct)
	sSlope := symmetricLinearScore(slopePct, trendSlopeMaxAbs)

	score := trendWeightAlignment*sAlign +
		trendWeightPersistence*sPersist +
		trendWeightExtension*sExt +
		trendWeightSlope*sSlope

	return ScoreResult{
		Score:     clamp100(score),
		Available: true,
		Features: features.Bundle{
			features.KeyTrendMAAlignment:    align,
			features.KeyTrendPersistence:    persistence,
			features.KeyTrendDistanceFromMA: distPct,
			features.KeyTrendMASlope:        slopePct,
			"trend_alignment_score":         sAlign,
			"trend_persistence_score":       sPersist,
			"trend_extension_score":         sExt,
			"trend_ma_slope_score":          sSlope,
			features.FlagTrendData:          1.0,
		},
	}
}

// alignmentScore maps the -1/0/+1 alignment sign to 0/50/100.
func alignmentScore(alignment float64) float64 {
	return (alignment + 1.0) * 50.0
}

// extensionScore rewards price staying near its MA: 100 inside the ideal
// band, minus trendExtensionCost points per extra % outside it.
func extensionScore(distPct float64) float64 {
	dist := distPct
	if dist < 0 {
		dist = -dist
	}
	if dist <= trendIdealBandPct {
		return 100.0
	}
	return clamp100(100.0 - (dist-trendIdealBandPct)*trendExtensionCost)
}

// symmetricLinearScore clamps v to +/-maxAbs and maps the range linearly
// to 0..100 with 0 -> 50.
func symmetricLinearScore(v, maxAbs float64) float64 {
	s := clamp(v, -maxAbs, maxAbs)
	return (s + maxAbs) / (2 * maxAbs) * 100.0
}
