package features

import "github.com/meridianscan/meridian/internal/data"

const (
	volumeMinBars      = 40
	rvolBaseLookback   = 20
	rvolRecentWindow   = 1
	volumeSlopeMA      = 20
	volumeSlopeLB      = 10
	volumePercentileLB = 60
)

// VolumeFeatures is the typed record behind the volume family.
type VolumeFeatures struct {
	RVOL          float64 // recent mean volume / base-window mean, 1.0 neutral
	TrendSlopePct float64 // % slope of the volume MA
	Percentile    float64 // latest volume's rank in the trailing window, 0..1
	HasData       bool
}

// Bundle flattens the record into the stable feature schema.
func (f VolumeFeatures) Bundle() Bundle {
	flag := 0.0
	if f.HasData {
		flag = 1.0
	}
	return Bundle{
		KeyVolumeRVOL:       f.RVOL,
		KeyVolumeTrendSlope: f.TrendSlopePct,
		KeyVolumePercentile: f.Percentile,
		FlagVolumeData:      flag,
	}
}

// ComputeVolume extracts volume features from a bar history.
func ComputeVolume(bars []data.Bar) VolumeFeatures {
	if len(bars) < volumeMinBars {
		return VolumeFeatures{RVOL: 1.0, Percentile: 0.5}
	}
	vols := data.Volumes(bars)
	return VolumeFeatures{
		RVOL:          rvol(vols, rvolBaseLookback, rvolRecentWindow),
		TrendSlopePct: volumeSlopePct(vols, volumeSlopeMA, volumeSlopeLB),
		Percentile:    volumePercentile(vols, volumePercentileLB),
		HasData:       true,
	}
}

// rvol is recent mean volume over the mean of the preceding base window.
// Neutral 1.0 when history is short or the base is dead.
func rvol(vols []float64, lookback, recentWindow int) float64 {
	needed := lookback + recentWindow
	if len(vols) < needed {
		return 1.0
	}
	recent := vols[len(vols)-recentWindow:]
	base := vols[len(vols)-needed : len(vols)-recentWindow]
	avgBase := sma(base)
	if avgBase <= 0 {
		return 1.0
	}
	return sma(recent) / avgBase
}

func volumeSlopePct(vols []float64, maPeriod, lookback int) float64 {
	needed := maPeriod + lookback
	if len(vols) < needed {
		return 0.0
	}
	recent := lastN(vols, needed)
	maStart := sma(recent[:maPeriod])
	maEnd := sma(recent[len(recent)-maPeriod:])
	if maStart <= 0 {
		return 0.0
	}
	return (maEnd - maStart) / maStart * 100.0
}

// volumePercentile ranks the latest volume against the trailing window,
// excluding itself. Returns 0..1; 0.5 neutral when history is short.
func volumePercentile(vols []float64, lookback int) float64 {
	if len(vols) < lookback+1 {
		return 0.5
	}
	window := vols[len(vols)-lookback-1 : len(vols)-1]
	last := vols[len(vols)-1]
	belowOrEqual := 0
	for _, v := range window {
		if v <= last {
			belowOrEqual++
		}
	}
	return float64(belowOrEqual) / float64(len(window))
}
