package scoring

import "github.com/meridianscan/meridian/internal/features"

// Relative-strength horizon weights, shared by the percentile-rank path
// and the raw-return fallback.
const (
	rsWeight20  = 0.45
	rsWeight60  = 0.35
	rsWeight120 = 0.20

	rsReturnNegCap = -50.0
	rsReturnPosCap = 150.0
)

// ScoreRelativeStrength normalizes the relative-strength family. When
// cross-sectional percentile ranks are present they are preferred;
// otherwise raw % returns are mapped through a linear calibration.
func ScoreRelativeStrength(b features.Bundle) ScoreResult {
	ret20 := b.Get(features.KeyRSRet20, 0.0)
	ret60 := b.Get(features.KeyRSRet60, 0.0)
	ret120 := b.Get(features.KeyRSRet120, 0.0)

	if !b.Has(features.FlagRSData) {
		return ScoreResult{
			Score: NeutralScore,
			Features: features.Bundle{
				features.KeyRSRet20:  ret20,
				features.KeyRSRet60:  ret60,
				features.KeyRSRet120: ret120,
				features.FlagRSData:  0.0,
			},
		}
	}

	rank20, hasRank20 := b[features.KeyRSRank20]
	rank60, hasRank60 := b[features.KeyRSRank60]
	rank120, hasRank120 := b[features.KeyRSRank120]
	ranked := hasRank20 && hasRank60 && hasRank120

	var s20, s60, s120 float64
	if ranked {
		s20, s60, s120 = clamp100(rank20), clamp100(rank60), clamp100(rank120)
	} else {
		s20 = returnScore(ret20)
		s60 = returnScore(ret60)
		s120 = returnScore(ret120)
	}

	score := rsWeight20*s20 + rsWeight60*s60 + rsWeight120*s120

	debug := features.Bundle{
		features.KeyRSRet20:  ret20,
		features.KeyRSRet60:  ret60,
		features.KeyRSRet120: ret120,
		"rs_20_score":        s20,
		"rs_60_score":        s60,
		"rs_120_score":       s120,
		features.FlagRSData:  1.0,
	}
	if ranked {
		debug[features.KeyRSRank20] = rank20
		debug[features.KeyRSRank60] = rank60
		debug[features.KeyRSRank120] = rank120
	}

	return ScoreResult{Score: clamp100(score), Available: true, Features: debug}
}

// returnScore maps a raw % return to 0..100: <= -50% -> 0, >= +150% -> 100,
// linear in between.
func returnScore(retPct float64) float64 {
	if retPct <= rsReturnNegCap {
		return 0.0
	}
	if retPct >= rsReturnPosCap {
		return 100.0
	}
	return clamp100((retPct - rsReturnNegCap) / (rsReturnPosCap - rsReturnNegCap) * 100.0)
}
