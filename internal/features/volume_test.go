package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianscan/meridian/internal/data"
)

func barsWithVolumes(vols []float64) []data.Bar {
	bars := makeBars(risingCloses(len(vols)))
	for i := range bars {
		bars[i].Volume = vols[i]
	}
	return bars
}

func TestComputeVolumeInsufficientHistory(t *testing.T) {
	f := ComputeVolume(makeBars(risingCloses(39)))
	require.False(t, f.HasData)
	assert.Equal(t, 1.0, f.RVOL)
	assert.Equal(t, 0.5, f.Percentile)
	assert.Equal(t, 0.0, f.Bundle()[FlagVolumeData])
}

func TestComputeVolumeSpike(t *testing.T) {
	vols := make([]float64, 61)
	for i := range vols {
		vols[i] = 100.0
	}
	vols[60] = 220.0

	f := ComputeVolume(barsWithVolumes(vols))
	require.True(t, f.HasData)
	assert.InDelta(t, 2.2, f.RVOL, 1e-9)
	assert.InDelta(t, 6.0, f.TrendSlopePct, 1e-9)
	assert.InDelta(t, 1.0, f.Percentile, 1e-9)
}

func TestComputeVolumeFlat(t *testing.T) {
	vols := make([]float64, 61)
	for i := range vols {
		vols[i] = 100.0
	}
	f := ComputeVolume(barsWithVolumes(vols))
	require.True(t, f.HasData)
	assert.InDelta(t, 1.0, f.RVOL, 1e-9)
	assert.InDelta(t, 0.0, f.TrendSlopePct, 1e-9)
	// Every window volume compares <= the identical last volume.
	assert.InDelta(t, 1.0, f.Percentile, 1e-9)
}

func TestRVOLDeadBase(t *testing.T) {
	vols := make([]float64, 30)
	vols[29] = 500.0
	assert.Equal(t, 1.0, rvol(vols, rvolBaseLookback, rvolRecentWindow))
}
