package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolComfort(t *testing.T) {
	assert.Equal(t, 100.0, VolComfort(50.0))
	assert.Equal(t, 80.0, VolComfort(60.0))
	assert.Equal(t, 80.0, VolComfort(40.0))
	assert.Equal(t, 0.0, VolComfort(0.0))
	assert.Equal(t, 0.0, VolComfort(100.0))
}

func TestRiskOnBlend(t *testing.T) {
	// 0.40*70 + 0.30*60 + 0.15*80 + 0.15*50
	assert.InDelta(t, 65.5, RiskOn(70.0, 60.0, 80.0, 50.0), 1e-9)
	assert.Equal(t, 100.0, RiskOn(200.0, 100.0, 100.0, 100.0))
	assert.Equal(t, 0.0, RiskOn(-50.0, 0.0, 0.0, 0.0))
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	bull := MarketHealth{
		RiskOn:         Float(70.0),
		BreadthPct:     Float(65.0),
		BenchmarkTrend: Float(62.0),
	}
	assert.Equal(t, Bull, Classify(bull, th))

	bear := MarketHealth{
		RiskOn:         Float(30.0),
		BreadthPct:     Float(35.0),
		BenchmarkTrend: Float(38.0),
	}
	assert.Equal(t, Bear, Classify(bear, th))

	// One failed bull gate drops to sideways, not bear.
	mixed := MarketHealth{
		RiskOn:         Float(70.0),
		BreadthPct:     Float(55.0),
		BenchmarkTrend: Float(62.0),
	}
	assert.Equal(t, Sideways, Classify(mixed, th))

	// Missing metrics default to 50 across the board.
	assert.Equal(t, Sideways, Classify(MarketHealth{}, th))
}

func TestClassifyGateBoundaries(t *testing.T) {
	th := DefaultThresholds()

	atBullGates := MarketHealth{
		RiskOn:         Float(65.0),
		BreadthPct:     Float(60.0),
		BenchmarkTrend: Float(60.0),
	}
	assert.Equal(t, Bull, Classify(atBullGates, th))

	atBearGates := MarketHealth{
		RiskOn:         Float(35.0),
		BreadthPct:     Float(40.0),
		BenchmarkTrend: Float(40.0),
	}
	assert.Equal(t, Bear, Classify(atBearGates, th))
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, 50.0, ValueOr(nil, 50.0))
	assert.Equal(t, 72.0, ValueOr(Float(72.0), 50.0))
}
