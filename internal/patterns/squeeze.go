package patterns

import (
	"fmt"

	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/scoring"
)

// SqueezeConfig tunes the volatility squeeze detector.
type SqueezeConfig struct {
	MaxBBWidthPct       float64 `yaml:"max_bb_width_pct"`
	MaxContractionRatio float64 `yaml:"max_contraction_ratio"`
	MinVolatilityScore  float64 `yaml:"min_volatility_score"`
	MinTrendScore       float64 `yaml:"min_trend_score"`
	MinRSScore          float64 `yaml:"min_rs_score"`
}

// DefaultSqueezeConfig returns the stock squeeze parameters.
func DefaultSqueezeConfig() SqueezeConfig {
	return SqueezeConfig{
		MaxBBWidthPct:       6.0,
		MaxContractionRatio: 1.0,
		MinVolatilityScore:  60.0,
		MinTrendScore:       0.0,
		MinRSScore:          0.0,
	}
}

// DetectSqueeze fires on low-volatility compressions primed for
// expansion: a narrow positive band width, a contracting ATR ratio and a
// high volatility score, with optional trend/RS floors. The signal is
// direction-neutral.
func DetectSqueeze(ctx Context, cfg SqueezeConfig) *Signal {
	if cfg.MaxBBWidthPct <= 0 {
		cfg = DefaultSqueezeConfig()
	}

	bbWidthPct := ctx.feature(features.KeyVolatilityBBWidthPct, 0.0)
	contraction := ctx.feature(features.KeyVolatilityContraction, 1.0)
	volScore := ctx.score(scoring.KeyVolatilityScore)
	trendScore := ctx.score(scoring.KeyTrendScore)
	rsScore := ctx.score(scoring.KeyRSScore)
	rvol := ctx.feature(features.KeyVolumeRVOL, 1.0)

	if bbWidthPct <= 0 || bbWidthPct > cfg.MaxBBWidthPct {
		return nil
	}
	if contraction > cfg.MaxContractionRatio {
		return nil
	}
	if volScore < cfg.MinVolatilityScore {
		return nil
	}
	if trendScore < cfg.MinTrendScore || rsScore < cfg.MinRSScore {
		return nil
	}

	compressionScore := clamp((cfg.MaxBBWidthPct-bbWidthPct)/cfg.MaxBBWidthPct*100.0, 0.0, 100.0)
	contractionScore := clamp((cfg.MaxContractionRatio-contraction)/maxFloat(cfg.MaxContractionRatio, 1e-6)*100.0, 0.0, 100.0)
	strength := clamp(0.4*compressionScore+0.3*contractionScore+0.3*volScore, 0.0, 100.0)
	confidence := clamp((strength+trendScore*0.3+rsScore*0.2+rvol*10.0)/2.0, 0.0, 100.0)

	return &Signal{
		Pattern:    NameVolatilitySqueeze,
		Symbol:     ctx.Symbol,
		Timeframe:  ctx.Timeframe,
		Triggered:  true,
		Strength:   strength,
		Confidence: confidence,
		Notes: fmt.Sprintf("squeeze: BBW %.2f%%, contraction %.2f, vol score %.1f",
			bbWidthPct, contraction, volScore),
		Extras: map[string]interface{}{
			"bb_width_pct":      bbWidthPct,
			"contraction_ratio": contraction,
			"volatility_score":  volScore,
			"trend_score":       trendScore,
			"rs_score":          rsScore,
			"rvol":              rvol,
		},
	}
}
