package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianscan/meridian/internal/features"
)

func TestScoreTrendUnavailable(t *testing.T) {
	b := features.Bundle{
		features.KeyTrendMAAlignment:    0.0,
		features.KeyTrendPersistence:    0.5,
		features.KeyTrendDistanceFromMA: 0.0,
		features.KeyTrendMASlope:        0.0,
		features.FlagTrendData:          0.0,
	}
	r := ScoreTrend(b)
	assert.Equal(t, NeutralScore, r.Score)
	assert.False(t, r.Available)

	// The debug map carries only the raw inputs, no derived scores.
	assert.NotContains(t, r.Features, "trend_alignment_score")
	assert.Equal(t, 0.0, r.Features[features.FlagTrendData])
}

func TestScoreTrendIdealSetup(t *testing.T) {
	b := features.Bundle{
		features.KeyTrendMAAlignment:    1.0,
		features.KeyTrendPersistence:    1.0,
		features.KeyTrendDistanceFromMA: 2.0,
		features.KeyTrendMASlope:        5.0,
		features.FlagTrendData:          1.0,
	}
	r := ScoreTrend(b)
	require.True(t, r.Available)
	assert.InDelta(t, 100.0, r.Score, 1e-9)
	assert.Equal(t, 100.0, r.Features["trend_extension_score"])
}

func TestScoreTrendNeutralInputs(t *testing.T) {
	b := features.Bundle{
		features.KeyTrendMAAlignment:    0.0,
		features.KeyTrendPersistence:    0.5,
		features.KeyTrendDistanceFromMA: 0.0,
		features.KeyTrendMASlope:        0.0,
		features.FlagTrendData:          1.0,
	}
	r := ScoreTrend(b)
	require.True(t, r.Available)
	// 0.35*50 + 0.30*50 + 0.20*100 + 0.15*50
	assert.InDelta(t, 60.0, r.Score, 1e-9)
}

func TestExtensionScorePenalizesOverextension(t *testing.T) {
	assert.Equal(t, 100.0, extensionScore(4.9))
	assert.Equal(t, 100.0, extensionScore(-5.0))
	assert.InDelta(t, 75.0, extensionScore(10.0), 1e-9)
	assert.Equal(t, 0.0, extensionScore(30.0))
}

func TestRVOLScoreCurve(t *testing.T) {
	assert.Equal(t, 0.0, rvolScore(0.0))
	assert.Equal(t, 0.0, rvolScore(-1.0))
	assert.InDelta(t, 30.0, rvolScore(0.5), 1e-9)
	assert.InDelta(t, 60.0, rvolScore(1.0), 1e-9)
	assert.InDelta(t, 70.0, rvolScore(1.25), 1e-9)
	assert.InDelta(t, 80.0, rvolScore(1.5), 1e-9)
	assert.InDelta(t, 89.333333, rvolScore(2.2), 1e-4)
	assert.InDelta(t, 100.0, rvolScore(3.0), 1e-9)
	assert.InDelta(t, 85.0, rvolScore(5.0), 1e-9)
	assert.Equal(t, 70.0, rvolScore(7.0))
	assert.Equal(t, 70.0, rvolScore(25.0))
}

func TestScoreVolume(t *testing.T) {
	b := features.Bundle{
		features.KeyVolumeRVOL:       2.2,
		features.KeyVolumeTrendSlope: 0.0,
		features.KeyVolumePercentile: 1.0,
		features.FlagVolumeData:      1.0,
	}
	r := ScoreVolume(b)
	require.True(t, r.Available)
	// 0.45*89.33 + 0.25*50 + 0.30*100
	assert.InDelta(t, 82.7, r.Score, 0.01)
	assert.Contains(t, r.Features, "volume_rvol_score")
}

func TestScoreVolumeUnavailable(t *testing.T) {
	r := ScoreVolume(features.Bundle{features.FlagVolumeData: 0.0})
	assert.Equal(t, NeutralScore, r.Score)
	assert.False(t, r.Available)
	assert.NotContains(t, r.Features, "volume_rvol_score")
}

func TestScoreVolatilityQuietMarket(t *testing.T) {
	b := features.Bundle{
		features.KeyVolatilityATRPct:      0.0,
		features.KeyVolatilityBBWidthPct:  0.0,
		features.KeyVolatilityContraction: 1.0,
		features.FlagVolatilityData:       1.0,
	}
	r := ScoreVolatility(b)
	require.True(t, r.Available)
	// 0.30*100 + 0.35*100 + 0.35*50
	assert.InDelta(t, 82.5, r.Score, 1e-9)
}

func TestScoreVolatilityScalePoints(t *testing.T) {
	assert.InDelta(t, 50.0, inverseScaleScore(5.0, 5.0), 1e-9)
	assert.InDelta(t, 50.0, inverseScaleScore(10.0, 10.0), 1e-9)
	assert.Equal(t, 100.0, inverseScaleScore(-3.0, 5.0))

	assert.Equal(t, 100.0, contractionScore(0.0))
	assert.InDelta(t, 50.0, contractionScore(1.0), 1e-9)
	assert.Equal(t, 0.0, contractionScore(2.5))
}

func TestScoreRelativeStrengthRankedPath(t *testing.T) {
	b := features.Bundle{
		features.KeyRSRet20:   10.0,
		features.KeyRSRet60:   30.0,
		features.KeyRSRet120:  60.0,
		features.KeyRSRank20:  100.0,
		features.KeyRSRank60:  100.0,
		features.KeyRSRank120: 100.0,
		features.FlagRSData:   1.0,
	}
	r := ScoreRelativeStrength(b)
	require.True(t, r.Available)
	assert.InDelta(t, 100.0, r.Score, 1e-9)
	assert.Contains(t, r.Features, features.KeyRSRank20)
}

func TestScoreRelativeStrengthRawFallback(t *testing.T) {
	// Missing even one rank drops the whole ranked path.
	b := features.Bundle{
		features.KeyRSRet20:  0.0,
		features.KeyRSRet60:  0.0,
		features.KeyRSRet120: 0.0,
		features.KeyRSRank20: 100.0,
		features.FlagRSData:  1.0,
	}
	r := ScoreRelativeStrength(b)
	require.True(t, r.Available)
	// returnScore(0) = 25 on every horizon.
	assert.InDelta(t, 25.0, r.Score, 1e-9)
	assert.NotContains(t, r.Features, features.KeyRSRank60)
}

func TestReturnScoreCaps(t *testing.T) {
	assert.Equal(t, 0.0, returnScore(-80.0))
	assert.Equal(t, 0.0, returnScore(-50.0))
	assert.InDelta(t, 25.0, returnScore(0.0), 1e-9)
	assert.Equal(t, 100.0, returnScore(150.0))
	assert.Equal(t, 100.0, returnScore(400.0))
}

func TestScorePositioning(t *testing.T) {
	b := features.Bundle{
		features.KeyPositioningFunding:  0.00005,
		features.KeyPositioningOIChange: 0.0,
		features.FlagPositioningData:    1.0,
	}
	r := ScorePositioning(b)
	require.True(t, r.Available)
	// 0.7*100 + 0.3*50
	assert.InDelta(t, 85.0, r.Score, 1e-9)
}

func TestFundingCrowdingScore(t *testing.T) {
	assert.Equal(t, 100.0, fundingCrowdingScore(0.0))
	assert.Equal(t, 100.0, fundingCrowdingScore(-0.0001))
	assert.InDelta(t, 55.0, fundingCrowdingScore(0.00105), 1e-6)
	assert.Equal(t, 10.0, fundingCrowdingScore(0.002))
	assert.Equal(t, 10.0, fundingCrowdingScore(-0.01))
}

func TestOIBuildUpScore(t *testing.T) {
	assert.InDelta(t, 50.0, oiBuildUpScore(0.0), 1e-9)
	assert.Equal(t, 100.0, oiBuildUpScore(250.0))
	assert.Equal(t, 0.0, oiBuildUpScore(-100.0))
}
