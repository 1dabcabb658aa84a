package features

import (
	"fmt"
	"math"

	"github.com/meridianscan/meridian/internal/data"
)

// RSHorizons are the relative-strength lookbacks in bars. On daily data
// 20/60/120 approximate 1, 3 and 6 months.
var RSHorizons = []int{20, 60, 120}

// rsMinBars is the longest horizon plus one reference close.
var rsMinBars = RSHorizons[len(RSHorizons)-1] + 1

// UniverseReturns maps symbol -> horizon key ("ret_20", ...) -> % return.
// It is the one cross-sectional synchronization point of the pipeline:
// every symbol's raw returns must be collected here before any percentile
// rank can be computed.
type UniverseReturns map[string]map[string]float64

// RSFeatures is the typed record behind the relative-strength family.
// Ranks are only present when cross-sectional context was supplied.
type RSFeatures struct {
	Ret20   float64
	Ret60   float64
	Ret120  float64
	Rank20  *float64
	Rank60  *float64
	Rank120 *float64
	HasData bool
}

// Bundle flattens the record into the stable feature schema. Rank keys are
// omitted entirely when no universe context was available.
func (f RSFeatures) Bundle() Bundle {
	flag := 0.0
	if f.HasData {
		flag = 1.0
	}
	b := Bundle{
		KeyRSRet20:  f.Ret20,
		KeyRSRet60:  f.Ret60,
		KeyRSRet120: f.Ret120,
		FlagRSData:  flag,
	}
	if f.Rank20 != nil {
		b[KeyRSRank20] = *f.Rank20
	}
	if f.Rank60 != nil {
		b[KeyRSRank60] = *f.Rank60
	}
	if f.Rank120 != nil {
		b[KeyRSRank120] = *f.Rank120
	}
	return b
}

// HorizonKey is the canonical map key for a return horizon ("ret_20").
func HorizonKey(h int) string {
	return fmt.Sprintf("ret_%d", h)
}

// ReturnPct is the simple % return over the last lookback bars.
func ReturnPct(bars []data.Bar, lookback int) float64 {
	closes := data.Closes(bars)
	if len(closes) <= lookback {
		return 0.0
	}
	last := closes[len(closes)-1]
	past := closes[len(closes)-1-lookback]
	if past == 0 {
		return 0.0
	}
	return (last/past - 1.0) * 100.0
}

// MultiHorizonReturns computes returns for every configured horizon.
func MultiHorizonReturns(bars []data.Bar) map[string]float64 {
	out := make(map[string]float64, len(RSHorizons))
	for _, h := range RSHorizons {
		out[HorizonKey(h)] = ReturnPct(bars, h)
	}
	return out
}

// ComputeUniverseReturns builds the cross-sectional return context for a
// whole scan. Symbols without enough history for the longest horizon are
// excluded.
func ComputeUniverseReturns(barsBySymbol map[string][]data.Bar) UniverseReturns {
	universe := make(UniverseReturns)
	for symbol, bars := range barsBySymbol {
		if len(bars) < rsMinBars {
			continue
		}
		universe[symbol] = MultiHorizonReturns(bars)
	}
	return universe
}

// ComputeRS extracts relative-strength features. When universe context is
// supplied and contains the symbol, percentile ranks against the whole
// universe are included.
func ComputeRS(symbol string, bars []data.Bar, universe UniverseReturns) RSFeatures {
	if len(bars) < rsMinBars {
		return RSFeatures{}
	}

	rets, ranked := MultiHorizonReturns(bars), false
	if universe != nil {
		if ur, ok := universe[symbol]; ok {
			rets = ur
			ranked = true
		}
	}

	f := RSFeatures{
		Ret20:   rets[HorizonKey(20)],
		Ret60:   rets[HorizonKey(60)],
		Ret120:  rets[HorizonKey(120)],
		HasData: true,
	}
	if !ranked {
		return f
	}

	ranks := make(map[int]*float64, len(RSHorizons))
	for _, h := range RSHorizons {
		key := HorizonKey(h)
		val, ok := rets[key]
		if !ok || !isFinite(val) {
			continue
		}
		population := make([]float64, 0, len(universe))
		for _, r := range universe {
			if v, ok := r[key]; ok && isFinite(v) {
				population = append(population, v)
			}
		}
		if len(population) == 0 {
			continue
		}
		rank := PercentileRank(val, population)
		ranks[h] = &rank
	}
	f.Rank20 = ranks[20]
	f.Rank60 = ranks[60]
	f.Rank120 = ranks[120]
	return f
}

// PercentileRank maps value into its universe on a 0-100 scale: the best
// value gets 100, the worst 0, a flat distribution 50.
func PercentileRank(value float64, population []float64) float64 {
	clean := population[:0:0]
	for _, v := range population {
		if isFinite(v) {
			clean = append(clean, v)
		}
	}
	n := len(clean)
	if n == 0 {
		return 0.0
	}
	if n == 1 {
		return 100.0
	}
	lo, hi := clean[0], clean[0]
	for _, v := range clean {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 50.0
	}
	better := 0
	for _, v := range clean {
		if v > value {
			better++
		}
	}
	pct := float64(n-better-1) / float64(n-1) * 100.0
	return math.Max(0.0, math.Min(100.0, pct))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
