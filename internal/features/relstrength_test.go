package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianscan/meridian/internal/data"
)

func TestPercentileRank(t *testing.T) {
	assert.Equal(t, 0.0, PercentileRank(1.0, nil))
	assert.Equal(t, 100.0, PercentileRank(1.0, []float64{1.0}))
	assert.Equal(t, 50.0, PercentileRank(5.0, []float64{5.0, 5.0, 5.0}))

	population := []float64{-10.0, 0.0, 10.0, 20.0, 30.0}
	assert.Equal(t, 100.0, PercentileRank(30.0, population))
	assert.Equal(t, 0.0, PercentileRank(-10.0, population))
	assert.Equal(t, 50.0, PercentileRank(10.0, population))
}

func TestReturnPct(t *testing.T) {
	bars := makeBars(risingCloses(121))
	// Last close 220, 20 bars back 200.
	assert.InDelta(t, 10.0, ReturnPct(bars, 20), 1e-9)
	assert.InDelta(t, 120.0, ReturnPct(bars, 120), 1e-9)
	assert.Equal(t, 0.0, ReturnPct(bars, 121))
}

func TestComputeUniverseReturnsSkipsShortHistories(t *testing.T) {
	universe := ComputeUniverseReturns(map[string][]data.Bar{
		"LONGUSDT":  makeBars(risingCloses(130)),
		"SHORTUSDT": makeBars(risingCloses(100)),
	})
	require.Len(t, universe, 1)
	require.Contains(t, universe, "LONGUSDT")
	assert.Contains(t, universe["LONGUSDT"], HorizonKey(20))
	assert.Contains(t, universe["LONGUSDT"], HorizonKey(120))
}

func TestComputeRSWithoutUniverseContext(t *testing.T) {
	f := ComputeRS("AUSDT", makeBars(risingCloses(130)), nil)
	require.True(t, f.HasData)
	assert.Nil(t, f.Rank20)
	assert.Nil(t, f.Rank60)
	assert.Nil(t, f.Rank120)

	b := f.Bundle()
	assert.NotContains(t, b, KeyRSRank20)
	assert.NotContains(t, b, KeyRSRank60)
	assert.NotContains(t, b, KeyRSRank120)
	assert.Equal(t, 1.0, b[FlagRSData])
}

func TestComputeRSRankedAgainstUniverse(t *testing.T) {
	strong := makeBars(risingCloses(130))
	weak := makeBars(risingCloses(130))
	for i := range weak {
		weak[i].Close = 300.0 - float64(i)
	}
	universe := ComputeUniverseReturns(map[string][]data.Bar{
		"STRONGUSDT": strong,
		"WEAKUSDT":   weak,
	})

	f := ComputeRS("STRONGUSDT", strong, universe)
	require.True(t, f.HasData)
	require.NotNil(t, f.Rank20)
	require.NotNil(t, f.Rank120)
	assert.Equal(t, 100.0, *f.Rank20)
	assert.Equal(t, 100.0, *f.Rank120)

	w := ComputeRS("WEAKUSDT", weak, universe)
	require.NotNil(t, w.Rank20)
	assert.Equal(t, 0.0, *w.Rank20)
}

func TestComputeRSInsufficientHistory(t *testing.T) {
	f := ComputeRS("AUSDT", makeBars(risingCloses(120)), nil)
	assert.False(t, f.HasData)
	assert.Equal(t, 0.0, f.Bundle()[FlagRSData])
}
