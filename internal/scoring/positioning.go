package scoring

import (
	"math"

	"github.com/meridianscan/meridian/internal/features"
)

// Positioning blend weights. Funding carries most of the signal; OI change
// refines it.
const (
	positioningWeightFunding = 0.7
	positioningWeightOI      = 0.3

	// Funding crowding curve: full score while |funding| stays near zero,
	// decaying to the floor once the market is paying 0.2% or more.
	fundingNeutralAbs = 0.0001 // 0.01% per interval
	fundingCrowdedAbs = 0.002  // 0.2% per interval
	fundingFloorScore = 10.0
)

// ScorePositioning normalizes the positioning family.
func ScorePositioning(b features.Bundle) ScoreResult {
	funding := b.Get(features.KeyPositioningFunding, 0.0)
	oiChange := b.Get(features.KeyPositioningOIChange, 0.0)

	if !b.Has(features.FlagPositioningData) {
		return ScoreResult{
			Score: NeutralScore,
			Features: features.Bundle{
				features.KeyPositioningFunding:  funding,
				features.KeyPositioningOIChange: oiChange,
				features.FlagPositioningData:    0.0,
			},
		}
	}

	sFunding := fundingCrowdingScore(funding)
	sOI := oiBuildUpScore(oiChange)

	score := positioningWeightFunding*sFunding + positioningWeightOI*sOI

	return ScoreResult{
		Score:     clamp100(score),
		Available: true,
		Features: features.Bundle{
			features.KeyPositioningFunding:       funding,
			features.KeyPositioningOIChange:      oiChange,
			"positioning_funding_crowding_score": sFunding,
			"positioning_oi_build_up_score":      sOI,
			features.FlagPositioningData:         1.0,
		},
	}
}

// fundingCrowdingScore treats near-zero funding as uncrowded (100) and
// decays linearly to the floor once |funding| reaches the crowded bound.
func fundingCrowdingScore(fundingRate float64) float64 {
	a := math.Abs(fundingRate)
	if a <= fundingNeutralAbs {
		return 100.0
	}
	if a >= fundingCrowdedAbs {
		return fundingFloorScore
	}
	t := (a - fundingNeutralAbs) / (fundingCrowdedAbs - fundingNeutralAbs)
	return clamp100(100.0 - t*(100.0-fundingFloorScore))
}

// oiBuildUpScore maps open-interest % change in [-100, +100] linearly to
// 0..100: positions building scores high, positions unwinding scores low.
func oiBuildUpScore(oiChangePct float64) float64 {
	c := clamp(oiChangePct, -100.0, 100.0)
	return clamp100((c + 100.0) / 200.0 * 100.0)
}
