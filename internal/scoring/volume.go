package scoring

import "github.com/meridianscan/meridian/internal/features"

// Volume blend weights.
const (
	volumeWeightRVOL       = 0.45
	volumeWeightSlope      = 0.25
	volumeWeightPercentile = 0.30

	rvolSweetSpotLow  = 1.5
	rvolSweetSpotHigh = 3.0
	rvolDecayWindow   = 4.0 // decay span above the sweet spot
	volumeSlopeMaxAbs = 20.0
)

// ScoreVolume normalizes the volume feature family.
func ScoreVolume(b features.Bundle) ScoreResult {
	rvol := b.Get(features.KeyVolumeRVOL, 1.0)
	slopePct := b.Get(features.KeyVolumeTrendSlope, 0.0)
	percentile := b.Get(features.KeyVolumePercentile, 0.5)

	if !b.Has(features.FlagVolumeData) {
		return ScoreResult{
			Score: NeutralScore,
			Features: features.Bundle{
				features.KeyVolumeRVOL:       rvol,
				features.KeyVolumeTrendSlope: slopePct,
				features.KeyVolumePercentile: percentile,
				features.FlagVolumeData:      0.0,
			},
		}
	}

	sRVOL := rvolScore(rvol)
	sSlope := symmetricLinearScore(slopePct, volumeSlopeMaxAbs)
	sPct := clamp100(percentile * 100.0)

	score := volumeWeightRVOL*sRVOL +
		volumeWeightSlope*sSlope +
		volumeWeightPercentile*sPct

	return ScoreResult{
		Score:     clamp100(score),
		Available: true,
		Features: features.Bundle{
			features.KeyVolumeRVOL:       rvol,
			features.KeyVolumeTrendSlope: slopePct,
			features.KeyVolumePercentile: percentile,
			"volume_rvol_score":          sRVOL,
			"volume_trend_slope_score":   sSlope,
			"volume_percentile_score":    sPct,
			features.FlagVolumeData:      1.0,
		},
	}
}

// rvolScore is a piecewise ramp calibrated for breakout-style setups:
// below 1x interest is fading, 1.5-3x is the sweet spot, far above 3x the
// score tapers toward 70 to discount parabolic prints.
func rvolScore(rvol float64) float64 {
	switch {
	case rvol <= 0:
		return 0.0
	case rvol < 1.0:
		return clamp(rvol*60.0, 0.0, 60.0)
	case rvol < rvolSweetSpotLow:
		t := (rvol - 1.0) / (rvolSweetSpotLow - 1.0)
		return 60.0 + t*20.0
	case rvol <= rvolSweetSpotHigh:
		t := (rvol - rvolSweetSpotLow) / (rvolSweetSpotHigh - rvolSweetSpotLow)
		return 80.0 + t*20.0
	default:
		extra := rvol - rvolSweetSpotHigh
		if extra >= rvolDecayWindow {
			return 70.0
		}
		return 100.0 - (extra/rvolDecayWindow)*30.0
	}
}
