package patterns

import (
	"fmt"

	"github.com/meridianscan/meridian/internal/data"
	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/scoring"
)

// PullbackConfig tunes the pullback detector.
type PullbackConfig struct {
	Lookback       int     `yaml:"lookback"`
	MinTrendScore  float64 `yaml:"min_trend_score"`
	MinPullbackPct float64 `yaml:"min_pullback_pct"`
	MaxPullbackPct float64 `yaml:"max_pullback_pct"`
	MAProximityPct float64 `yaml:"ma_proximity_pct"`
	MaxRVOL        float64 `yaml:"max_rvol"`
	MinRSScore     float64 `yaml:"min_rs_score"`
	MaxRSIInTrend  float64 `yaml:"max_rsi_in_trend"`
}

// DefaultPullbackConfig returns the stock pullback parameters. The RSI
// ceiling is softer than classic oversold so strong trends still qualify.
func DefaultPullbackConfig() PullbackConfig {
	return PullbackConfig{
		Lookback:       15,
		MinTrendScore:  60.0,
		MinPullbackPct: 2.0,
		MaxPullbackPct: 10.0,
		MAProximityPct: 5.0,
		MaxRVOL:        2.0,
		MinRSScore:     40.0,
		MaxRSIInTrend:  55.0,
	}
}

// DetectPullback fires on a healthy dip inside an established uptrend:
// trend and RS intact, depth from the recent high inside the configured
// band, price near its trend MA, volume not panicking, RSI cooled off.
func DetectPullback(ctx Context, cfg PullbackConfig) *Signal {
	if cfg.Lookback <= 0 {
		cfg = DefaultPullbackConfig()
	}
	if len(ctx.Bars) < cfg.Lookback+1 {
		return nil
	}

	closes := data.Closes(ctx.Bars)
	window := closes[len(closes)-cfg.Lookback-1:]
	recentHigh := window[0]
	for _, c := range window[:len(window)-1] {
		if c > recentHigh {
			recentHigh = c
		}
	}
	lastClose := window[len(window)-1]
	if recentHigh == 0 {
		return nil
	}

	pullbackPct := -pctChange(lastClose, recentHigh) // positive when below the high
	if pullbackPct < cfg.MinPullbackPct || pullbackPct > cfg.MaxPullbackPct {
		return nil
	}

	trendScore := ctx.score(scoring.KeyTrendScore)
	rsScore := ctx.score(scoring.KeyRSScore)
	if trendScore < cfg.MinTrendScore || rsScore < cfg.MinRSScore {
		return nil
	}

	distFromMA := ctx.feature(features.KeyTrendDistanceFromMA, 0.0)
	if distFromMA < 0 {
		distFromMA = -distFromMA
	}
	if distFromMA > cfg.MAProximityPct {
		return nil
	}

	rvol := ctx.feature(features.KeyVolumeRVOL, 1.0)
	if rvol > cfg.MaxRVOL {
		return nil
	}

	rsiWindow := 30
	if len(closes) < rsiWindow {
		rsiWindow = len(closes)
	}
	rsi, rsiOK := lastRSI(closes[len(closes)-rsiWindow:], 14)
	if rsiOK && rsi > cfg.MaxRSIInTrend {
		return nil
	}

	pullbackScore := clamp((cfg.MaxPullbackPct-pullbackPct)/maxFloat(cfg.MaxPullbackPct, 1e-6)*100.0, 0.0, 100.0)
	proximityScore := clamp((cfg.MAProximityPct-distFromMA)/maxFloat(cfg.MAProximityPct, 1e-6)*100.0, 0.0, 100.0)
	strength := clamp(0.4*pullbackScore+0.4*trendScore+0.2*rsScore, 0.0, 100.0)
	confidence := clamp((strength+proximityScore)/2.0, 0.0, 100.0)

	extras := map[string]interface{}{
		"pullback_pct":     pullbackPct,
		"dist_from_ma_pct": distFromMA,
		"trend_score":      trendScore,
		"rs_score":         rsScore,
	}
	if rsiOK {
		extras["rsi"] = rsi
	}

	return &Signal{
		Pattern:    NamePullback,
		Symbol:     ctx.Symbol,
		Timeframe:  ctx.Timeframe,
		Triggered:  true,
		Direction:  Bullish,
		Strength:   strength,
		Confidence: confidence,
		Notes: fmt.Sprintf("pullback %.2f%% off recent high, %.2f%% from MA, RVOL %.2f",
			pullbackPct, distFromMA, rvol),
		Extras: extras,
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
