package patterns

import (
	"fmt"

	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/scoring"
)

// BreakoutConfig tunes the breakout detector.
type BreakoutConfig struct {
	Lookback       int     `yaml:"lookback"`
	BreakBufferPct float64 `yaml:"break_buffer_pct"`
	MinRVOL        float64 `yaml:"min_rvol"`
	MinTrendScore  float64 `yaml:"min_trend_score"`
	MinVolumeScore float64 `yaml:"min_volume_score"`
	MinRSScore     float64 `yaml:"min_rs_score"`
	MinConfluence  float64 `yaml:"min_confluence"`
	AllowBearish   bool    `yaml:"allow_bearish"`
}

// DefaultBreakoutConfig returns the stock breakout parameters.
func DefaultBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		Lookback:       20,
		BreakBufferPct: 0.1,
		MinRVOL:        1.5,
		MinTrendScore:  50.0,
		MinVolumeScore: 50.0,
		MinRSScore:     0.0,
		MinConfluence:  0.0,
		AllowBearish:   false,
	}
}

// DetectBreakout fires when the latest close clears the prior range high
// by the configured buffer on elevated relative volume, with trend,
// volume and RS scores confirming. The bearish breakdown mirror is off by
// default.
func DetectBreakout(ctx Context, cfg BreakoutConfig) *Signal {
	if cfg.Lookback <= 0 {
		cfg = DefaultBreakoutConfig()
	}
	if len(ctx.Bars) < cfg.Lookback+1 {
		return nil
	}

	lastClose := ctx.Bars[len(ctx.Bars)-1].Close
	pivotHigh, okHigh := highestHigh(ctx.Bars, cfg.Lookback)
	pivotLow, okLow := lowestLow(ctx.Bars, cfg.Lookback)
	if !okHigh || !okLow {
		return nil
	}

	rvol := ctx.feature(features.KeyVolumeRVOL, 1.0)
	trendScore := ctx.score(scoring.KeyTrendScore)
	volumeScore := ctx.score(scoring.KeyVolumeScore)
	rsScore := ctx.score(scoring.KeyRSScore)

	if pivotHigh > 0 && lastClose >= pivotHigh*(1+cfg.BreakBufferPct/100.0) {
		if rvol >= cfg.MinRVOL &&
			trendScore >= cfg.MinTrendScore &&
			volumeScore >= cfg.MinVolumeScore &&
			rsScore >= cfg.MinRSScore &&
			ctx.Confluence >= cfg.MinConfluence {
			return buildBreakoutSignal(ctx, Bullish, pivotHigh, pctChange(lastClose, pivotHigh), rvol)
		}
	}

	if cfg.AllowBearish && pivotLow > 0 && lastClose <= pivotLow*(1-cfg.BreakBufferPct/100.0) {
		// Inverted trend gate for breakdowns.
		if rvol >= cfg.MinRVOL &&
			trendScore <= 100.0-cfg.MinTrendScore &&
			volumeScore >= cfg.MinVolumeScore &&
			ctx.Confluence >= cfg.MinConfluence {
			return buildBreakoutSignal(ctx, Bearish, pivotLow, -pctChange(lastClose, pivotLow), rvol)
		}
	}

	return nil
}

func buildBreakoutSignal(ctx Context, direction string, pivot, breakoutPct, rvol float64) *Signal {
	trendScore := ctx.score(scoring.KeyTrendScore)
	volumeScore := ctx.score(scoring.KeyVolumeScore)
	rsScore := ctx.score(scoring.KeyRSScore)

	distanceScore := clamp(breakoutPct*10.0, 0.0, 100.0)
	supportScore := clamp(0.4*trendScore+0.3*volumeScore+0.2*rsScore+0.1*ctx.Confluence, 0.0, 100.0)
	strength := clamp(0.5*distanceScore+0.5*supportScore, 0.0, 100.0)
	confidence := clamp(strength*0.6+rvol*10.0, 0.0, 100.0)

	return &Signal{
		Pattern:    NameBreakout,
		Symbol:     ctx.Symbol,
		Timeframe:  ctx.Timeframe,
		Triggered:  true,
		Direction:  direction,
		Strength:   strength,
		Confidence: confidence,
		Notes: fmt.Sprintf("%s break of %.4f by %.2f%% (RVOL %.2f)",
			direction, pivot, breakoutPct, rvol),
		Extras: map[string]interface{}{
			"pivot":        pivot,
			"breakout_pct": breakoutPct,
			"rvol":         rvol,
			"trend_score":  trendScore,
			"volume_score": volumeScore,
			"rs_score":     rsScore,
		},
	}
}
