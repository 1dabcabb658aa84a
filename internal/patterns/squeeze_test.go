package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/scoring"
)

func squeezeContext() Context {
	return Context{
		Symbol:    "TESTUSDT",
		Timeframe: "1d",
		Features: features.Bundle{
			features.KeyVolatilityBBWidthPct:  3.0,
			features.KeyVolatilityContraction: 0.8,
			features.KeyVolumeRVOL:            1.0,
		},
		Scores: map[string]float64{
			scoring.KeyVolatilityScore: 82.0,
			scoring.KeyTrendScore:      60.0,
			scoring.KeyRSScore:         55.0,
		},
	}
}

func TestDetectSqueeze(t *testing.T) {
	sig := DetectSqueeze(squeezeContext(), DefaultSqueezeConfig())
	require.NotNil(t, sig)
	assert.True(t, sig.Triggered)
	assert.Equal(t, NameVolatilitySqueeze, sig.Pattern)
	assert.Empty(t, sig.Direction)
	assert.Greater(t, sig.Strength, 0.0)
	assert.Equal(t, 3.0, sig.Extras["bb_width_pct"])
}

func TestDetectSqueezeGates(t *testing.T) {
	t.Run("band too wide", func(t *testing.T) {
		ctx := squeezeContext()
		ctx.Features[features.KeyVolatilityBBWidthPct] = 7.0
		assert.Nil(t, DetectSqueeze(ctx, DefaultSqueezeConfig()))
	})

	t.Run("zero band width", func(t *testing.T) {
		ctx := squeezeContext()
		ctx.Features[features.KeyVolatilityBBWidthPct] = 0.0
		assert.Nil(t, DetectSqueeze(ctx, DefaultSqueezeConfig()))
	})

	t.Run("volatility expanding", func(t *testing.T) {
		ctx := squeezeContext()
		ctx.Features[features.KeyVolatilityContraction] = 1.2
		assert.Nil(t, DetectSqueeze(ctx, DefaultSqueezeConfig()))
	})

	t.Run("low volatility score", func(t *testing.T) {
		ctx := squeezeContext()
		ctx.Scores[scoring.KeyVolatilityScore] = 40.0
		assert.Nil(t, DetectSqueeze(ctx, DefaultSqueezeConfig()))
	})
}
