package patterns

import (
	"fmt"
	"math"
)

// RSIDivergenceConfig tunes the divergence detector.
type RSIDivergenceConfig struct {
	Period          int     `yaml:"period"`
	Lookback        int     `yaml:"lookback"`
	PivotLookback   int     `yaml:"pivot_lookback"`
	MinStrength     float64 `yaml:"min_strength"`
	MaxBarsFromLast int     `yaml:"max_bars_from_last"`
}

// DefaultRSIDivergenceConfig returns the stock divergence parameters.
func DefaultRSIDivergenceConfig() RSIDivergenceConfig {
	return RSIDivergenceConfig{
		Period:          14,
		Lookback:        150,
		PivotLookback:   3,
		MinStrength:     5.0,
		MaxBarsFromLast: 3,
	}
}

// DetectRSIDivergence compares the last two price pivots against the last
// two RSI pivots inside the lookback window. Bullish: price prints a lower
// low while RSI prints a higher low by more than MinStrength. Bearish
// mirrors on highs. The latest price pivot must be fresh (within
// MaxBarsFromLast of the window end). If both directions qualify, only
// the stronger signal is emitted. The detector has no hidden state:
// running it twice on the same window yields the identical result.
func DetectRSIDivergence(ctx Context, cfg RSIDivergenceConfig) *Signal {
	if cfg.Period <= 0 || cfg.Lookback <= 0 {
		cfg = DefaultRSIDivergenceConfig()
	}
	if len(ctx.Bars) < cfg.Period+2 {
		return nil
	}

	window := ctx.Bars
	if len(window) > cfg.Lookback {
		window = window[len(window)-cfg.Lookback:]
	}

	closes := make([]float64, len(window))
	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	rsi := rsiSeries(closes, cfg.Period)
	if allNaN(rsi) {
		return nil
	}
	latestIdx := len(window) - 1

	var bull, bear *Signal

	priceLows := findPivots(lows, cfg.PivotLookback, false)
	rsiLows := findPivots(rsi, cfg.PivotLookback, false)
	if p1, p2, ok := lastTwo(priceLows); ok {
		if r1, r2, ok := lastTwo(rsiLows); ok {
			fresh := latestIdx-p2 <= cfg.MaxBarsFromLast
			if fresh && lows[p2] < lows[p1] && rsi[r2] > rsi[r1]+cfg.MinStrength {
				bull = buildDivergenceSignal(ctx, Bullish, p1, p2, r1, r2, lows, rsi, latestIdx)
			}
		}
	}

	priceHighs := findPivots(highs, cfg.PivotLookback, true)
	rsiHighs := findPivots(rsi, cfg.PivotLookback, true)
	if h1, h2, ok := lastTwo(priceHighs); ok {
		if r1, r2, ok := lastTwo(rsiHighs); ok {
			fresh := latestIdx-h2 <= cfg.MaxBarsFromLast
			if fresh && highs[h2] > highs[h1] && rsi[r2] < rsi[r1]-cfg.MinStrength {
				bear = buildDivergenceSignal(ctx, Bearish, h1, h2, r1, r2, highs, rsi, latestIdx)
			}
		}
	}

	switch {
	case bull != nil && bear != nil:
		if bull.Strength >= bear.Strength {
			return bull
		}
		return bear
	case bull != nil:
		return bull
	default:
		return bear
	}
}

// findPivots returns indices whose value is the extreme of the symmetric
// 2*lookback+1 window centered on them. NaN centers never qualify.
func findPivots(values []float64, lookback int, high bool) []int {
	var pivots []int
	for i := lookback; i < len(values)-lookback; i++ {
		center := values[i]
		if math.IsNaN(center) {
			continue
		}
		isPivot := true
		for j := i - lookback; j <= i+lookback; j++ {
			v := values[j]
			if math.IsNaN(v) {
				continue
			}
			if high && v > center {
				isPivot = false
				break
			}
			if !high && v < center {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots = append(pivots, i)
		}
	}
	return pivots
}

func lastTwo(indices []int) (int, int, bool) {
	if len(indices) < 2 {
		return 0, 0, false
	}
	return indices[len(indices)-2], indices[len(indices)-1], true
}

func buildDivergenceSignal(ctx Context, direction string, priceIdx1, priceIdx2, rsiIdx1, rsiIdx2 int, prices, rsi []float64, latestIdx int) *Signal {
	barsSince := latestIdx - priceIdx2
	rsiDelta := rsi[rsiIdx2] - rsi[rsiIdx1]
	strength := clamp(math.Abs(rsiDelta)*5.0, 0.0, 100.0)
	recency := clamp(100.0-float64(barsSince)*10.0, 0.0, 100.0)
	confidence := clamp(0.6*strength+0.4*recency, 0.0, 100.0)

	return &Signal{
		Pattern:    NameRSIDivergence,
		Symbol:     ctx.Symbol,
		Timeframe:  ctx.Timeframe,
		Triggered:  true,
		Direction:  direction,
		Strength:   strength,
		Confidence: confidence,
		Notes: fmt.Sprintf("%s divergence: price %.4f->%.4f, RSI %.1f->%.1f",
			direction, prices[priceIdx1], prices[priceIdx2], rsi[rsiIdx1], rsi[rsiIdx2]),
		Extras: map[string]interface{}{
			"price_pivots": []int{priceIdx1, priceIdx2},
			"rsi_pivots":   []int{rsiIdx1, rsiIdx2},
			"rsi_delta":    rsiDelta,
			"bars_since":   barsSince,
		},
	}
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
