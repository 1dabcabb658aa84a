package features

import (
	"math"

	"github.com/meridianscan/meridian/internal/data"
)

// Volatility extraction parameters. 80 bars covers the long contraction
// window plus the ATR warmup.
const (
	volatilityMinBars    = 80
	atrPeriod            = 14
	bbPeriod             = 20
	bbStdDev             = 2.0
	contractionLongWin   = 60
	contractionShortWin  = 20
)

// VolatilityFeatures is the typed record behind the volatility family.
type VolatilityFeatures struct {
	ATRPct           float64 // Wilder ATR as % of last close
	BBWidthPct       float64 // Bollinger band width as % of middle band
	ContractionRatio float64 // recent ATR% / earlier ATR%, 1.0 neutral
	HasData          bool
}

// Bundle flattens the record into the stable feature schema.
func (f VolatilityFeatures) Bundle() Bundle {
	flag := 0.0
	if f.HasData {
		flag = 1.0
	}
	return Bundle{
		KeyVolatilityATRPct:      f.ATRPct,
		KeyVolatilityBBWidthPct:  f.BBWidthPct,
		KeyVolatilityContraction: f.ContractionRatio,
		FlagVolatilityData:       flag,
	}
}

// ComputeVolatility extracts volatility features from a bar history.
func ComputeVolatility(bars []data.Bar) VolatilityFeatures {
	if len(bars) < volatilityMinBars {
		return VolatilityFeatures{ContractionRatio: 1.0}
	}
	return VolatilityFeatures{
		ATRPct:           atrPct(bars, atrPeriod),
		BBWidthPct:       bbWidthPct(bars, bbPeriod, bbStdDev),
		ContractionRatio: contractionRatio(bars, contractionLongWin, contractionShortWin),
		HasData:          true,
	}
}

func trueRange(prevClose, high, low float64) float64 {
	tr := high - low
	if hc := math.Abs(high - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// atr computes Wilder-smoothed average true range. Returns 0 when there is
// not enough history for one full period.
func atr(bars []data.Bar, period int) float64 {
	if period <= 0 || len(bars) <= period {
		return 0.0
	}
	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, trueRange(bars[i-1].Close, bars[i].High, bars[i].Low))
	}
	if len(trs) < period {
		return 0.0
	}
	val := 0.0
	for _, tr := range trs[:period] {
		val += tr
	}
	val /= float64(period)
	for _, tr := range trs[period:] {
		val = (val*float64(period-1) + tr) / float64(period)
	}
	return val
}

func atrPct(bars []data.Bar, period int) float64 {
	if len(bars) < period+1 {
		return 0.0
	}
	lastClose := bars[len(bars)-1].Close
	if lastClose == 0 {
		return 0.0
	}
	return atr(bars, period) / lastClose * 100.0
}

// bbWidthPct is the Bollinger band width (upper-lower) as a percentage of
// the middle band, using population standard deviation.
func bbWidthPct(bars []data.Bar, period int, stdDev float64) float64 {
	if len(bars) < period {
		return 0.0
	}
	closes := data.Closes(bars[len(bars)-period:])
	middle := sma(closes)
	if middle == 0 {
		return 0.0
	}
	variance := 0.0
	for _, c := range closes {
		d := c - middle
		variance += d * d
	}
	variance /= float64(period)
	std := math.Sqrt(variance)
	return (2.0 * stdDev * std) / middle * 100.0
}

// contractionRatio compares recent ATR% to earlier ATR% on disjoint
// windows. <1 means volatility is contracting. Neutral 1.0 when history is
// too short or the earlier segment is flat.
func contractionRatio(bars []data.Bar, longWin, shortWin int) float64 {
	if len(bars) < longWin+1 {
		return 1.0
	}
	n := len(bars)
	earlier := bars[maxInt(0, n-longWin-shortWin) : n-shortWin]
	recent := bars[n-shortWin-1:]

	earlierPct := atrPct(earlier, minInt(atrPeriod, len(earlier)-1))
	recentPct := atrPct(recent, minInt(atrPeriod, len(recent)-1))
	if earlierPct <= 0 {
		return 1.0
	}
	return recentPct / earlierPct
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
