package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianscan/meridian/internal/features"
)

func TestResolveWeightsExplicitWins(t *testing.T) {
	table := map[string]map[string]float64{
		"bull": {"trend": 0.8, "volume": 0.2},
	}
	w := ResolveWeights("bull", table, map[string]float64{"rs": 1.0})
	require.Len(t, w, 1)
	assert.Equal(t, 1.0, w[KeyRSScore])
}

func TestResolveWeightsCanonicalizesAliases(t *testing.T) {
	table := map[string]map[string]float64{
		"bull": {"trend": 0.5, "volume_score": 0.3, "bogus": 0.2},
	}
	w := ResolveWeights("bull", table, nil)
	require.Len(t, w, 2)
	assert.Equal(t, 0.5, w[KeyTrendScore])
	assert.Equal(t, 0.3, w[KeyVolumeScore])
}

func TestResolveWeightsEqualFallback(t *testing.T) {
	w := ResolveWeights("sideways", nil, nil)
	require.Len(t, w, len(ComponentKeys))
	for _, k := range ComponentKeys {
		assert.InDelta(t, 0.2, w[k], 1e-9)
	}
}

func TestComputeConfluenceAllAvailable(t *testing.T) {
	scores := map[string]float64{
		KeyTrendScore:  80.0,
		KeyVolumeScore: 60.0,
	}
	feats := features.Bundle{
		features.FlagTrendData:  1.0,
		features.FlagVolumeData: 1.0,
	}
	weights := map[string]float64{
		KeyTrendScore:  0.5,
		KeyVolumeScore: 0.5,
	}
	r := ComputeConfluence(scores, feats, "bull", weights)
	assert.InDelta(t, 70.0, r.Score, 1e-9)
	assert.InDelta(t, 100.0, r.Confidence, 1e-9)
	assert.Equal(t, "bull", r.Regime)
}

func TestComputeConfluenceSkipsUnavailableFamilies(t *testing.T) {
	scores := map[string]float64{
		KeyTrendScore:  80.0,
		KeyVolumeScore: 60.0,
	}
	feats := features.Bundle{
		features.FlagTrendData:  1.0,
		features.FlagVolumeData: 0.0,
	}
	weights := map[string]float64{
		KeyTrendScore:  0.5,
		KeyVolumeScore: 0.5,
	}
	r := ComputeConfluence(scores, feats, "bull", weights)
	// Only the trend component is usable, so it carries the whole score
	// and only half the configured weight was spent.
	assert.InDelta(t, 80.0, r.Score, 1e-9)
	assert.InDelta(t, 50.0, r.Confidence, 1e-9)
}

func TestComputeConfluenceSkipsNonFiniteScores(t *testing.T) {
	scores := map[string]float64{
		KeyTrendScore:  math.NaN(),
		KeyVolumeScore: 40.0,
	}
	weights := map[string]float64{
		KeyTrendScore:  0.6,
		KeyVolumeScore: 0.4,
	}
	r := ComputeConfluence(scores, nil, "sideways", weights)
	assert.InDelta(t, 40.0, r.Score, 1e-9)
	assert.InDelta(t, 40.0, r.Confidence, 1e-9)
}

func TestComputeConfluenceNoWeights(t *testing.T) {
	r := ComputeConfluence(map[string]float64{KeyTrendScore: 90.0}, nil, "bear", nil)
	assert.Equal(t, 0.0, r.Score)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Equal(t, "bear", r.Regime)
}

func TestComputeConfluenceMissingScoreValue(t *testing.T) {
	weights := map[string]float64{
		KeyTrendScore: 0.7,
		KeyRSScore:    0.3,
	}
	r := ComputeConfluence(map[string]float64{KeyTrendScore: 55.0}, nil, "bull", weights)
	assert.InDelta(t, 55.0, r.Score, 1e-9)
	assert.InDelta(t, 70.0, r.Confidence, 1e-9)
}

func TestScoreBundleHelpers(t *testing.T) {
	b := ScoreBundle{
		Symbol: "BTCUSDT",
		Scores: map[string]float64{KeyTrendScore: 72.0},
		Patterns: []string{
			"Breakout (bullish)",
			"RSI Divergence 4h (bearish)",
		},
	}
	assert.Equal(t, 72.0, b.Score(KeyTrendScore))
	assert.Equal(t, 0.0, b.Score(KeyVolumeScore))
	assert.Equal(t, 0.0, ScoreBundle{}.Score(KeyTrendScore))

	assert.True(t, b.HasPattern("breakout"))
	assert.True(t, b.HasPattern("RSI Divergence"))
	assert.False(t, b.HasPattern("pullback"))
}
