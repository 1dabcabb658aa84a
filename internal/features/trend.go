package features

import "github.com/meridianscan/meridian/internal/data"

// Trend extraction parameters. 60 bars covers the long MA plus the slope
// lookback with margin.
const (
	trendMinBars     = 60
	trendShortMA     = 20
	trendLongMA      = 50
	trendPersistLB   = 20
	trendSlopeLB     = 5
	alignmentEpsilon = 1e-8
)

// TrendFeatures is the typed record behind the trend family's bundle keys.
type TrendFeatures struct {
	MAAlignment       float64 // -1, 0 or +1
	Persistence       float64 // fraction of up-closes, 0..1
	DistanceFromMAPct float64 // signed % distance of close from long MA
	MASlopePct        float64 // % slope of long MA over trendSlopeLB bars
	HasData           bool
}

// Bundle flattens the record into the stable feature schema.
func (f TrendFeatures) Bundle() Bundle {
	flag := 0.0
	if f.HasData {
		flag = 1.0
	}
	return Bundle{
		KeyTrendMAAlignment:    f.MAAlignment,
		KeyTrendPersistence:    f.Persistence,
		KeyTrendDistanceFromMA: f.DistanceFromMAPct,
		KeyTrendMASlope:        f.MASlopePct,
		FlagTrendData:          flag,
	}
}

// ComputeTrend extracts trend features from a bar history. Below the
// minimum history it returns neutral defaults with HasData false.
func ComputeTrend(bars []data.Bar) TrendFeatures {
	if len(bars) < trendMinBars {
		return TrendFeatures{MAAlignment: 0.0, Persistence: 0.5}
	}

	closes := data.Closes(bars)
	return TrendFeatures{
		MAAlignment:       maAlignment(closes, trendShortMA, trendLongMA),
		Persistence:       trendPersistence(closes, trendPersistLB),
		DistanceFromMAPct: distanceFromMA(closes, trendLongMA),
		MASlopePct:        maSlopePct(closes, trendLongMA, trendSlopeLB),
		HasData:           true,
	}
}

// maAlignment returns +1 when the short MA is above the long MA, -1 when
// below, 0 when they are effectively equal or history is too short.
func maAlignment(closes []float64, shortPeriod, longPeriod int) float64 {
	if len(closes) < longPeriod {
		return 0.0
	}
	shortMA := sma(lastN(closes, shortPeriod))
	longMA := sma(lastN(closes, longPeriod))
	diff := shortMA - longMA
	if diff > alignmentEpsilon {
		return 1.0
	}
	if diff < -alignmentEpsilon {
		return -1.0
	}
	return 0.0
}

// trendPersistence is the fraction of the last lookback closes that printed
// above the previous close. Neutral 0.5 when history is too short.
func trendPersistence(closes []float64, lookback int) float64 {
	if len(closes) < lookback+1 {
		return 0.5
	}
	recent := lastN(closes, lookback+1)
	up := 0
	for i := 1; i < len(recent); i++ {
		if recent[i] > recent[i-1] {
			up++
		}
	}
	return float64(up) / float64(lookback)
}

// distanceFromMA is the signed % distance of the latest close from its MA.
func distanceFromMA(closes []float64, maPeriod int) float64 {
	if len(closes) < maPeriod {
		return 0.0
	}
	ma := sma(lastN(closes, maPeriod))
	if ma == 0 {
		return 0.0
	}
	last := closes[len(closes)-1]
	return (last - ma) / ma * 100.0
}

// maSlopePct is the % change of the MA across the slope lookback window.
func maSlopePct(closes []float64, maPeriod, lookback int) float64 {
	needed := maPeriod + lookback
	if len(closes) < needed {
		return 0.0
	}
	recent := lastN(closes, needed)
	maStart := sma(recent[:maPeriod])
	maEnd := sma(recent[len(recent)-maPeriod:])
	if maStart == 0 {
		return 0.0
	}
	return (maEnd - maStart) / maStart * 100.0
}
