package ranking

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/scoring"
)

// FilterConfig holds the hard floors and ceilings applied before any
// leaderboard is compiled. Zero values disable the corresponding check,
// so the default config passes everything through.
type FilterConfig struct {
	MinTrendScore      float64 `yaml:"min_trend_score"`
	MinRSScore         float64 `yaml:"min_rs_score"`
	MinVolumeScore     float64 `yaml:"min_volume_score"`
	MinVolatilityScore float64 `yaml:"min_volatility_score"`
	MaxATRPct          float64 `yaml:"max_atr_pct"`
	MaxBBWidthPct      float64 `yaml:"max_bb_width_pct"`
}

// passesFilters checks one bundle against the configured bounds and
// returns the list of rejection reasons, empty when it passes.
func passesFilters(b scoring.ScoreBundle, cfg FilterConfig) []string {
	var reasons []string

	if cfg.MinTrendScore > 0 && b.Score(scoring.KeyTrendScore) < cfg.MinTrendScore {
		reasons = append(reasons, fmt.Sprintf("trend<%.1f", cfg.MinTrendScore))
	}
	if cfg.MinRSScore > 0 && b.Score(scoring.KeyRSScore) < cfg.MinRSScore {
		reasons = append(reasons, fmt.Sprintf("rs<%.1f", cfg.MinRSScore))
	}
	if cfg.MinVolumeScore > 0 && b.Score(scoring.KeyVolumeScore) < cfg.MinVolumeScore {
		reasons = append(reasons, fmt.Sprintf("volume<%.1f", cfg.MinVolumeScore))
	}
	if cfg.MinVolatilityScore > 0 && b.Score(scoring.KeyVolatilityScore) < cfg.MinVolatilityScore {
		reasons = append(reasons, fmt.Sprintf("volatility<%.1f", cfg.MinVolatilityScore))
	}

	if cfg.MaxATRPct > 0 && b.Features != nil {
		if atr, ok := b.Features[features.KeyVolatilityATRPct]; ok && atr > cfg.MaxATRPct {
			reasons = append(reasons, fmt.Sprintf("atr_pct>%.1f", cfg.MaxATRPct))
		}
	}
	if cfg.MaxBBWidthPct > 0 && b.Features != nil {
		if bbw, ok := b.Features[features.KeyVolatilityBBWidthPct]; ok && bbw > cfg.MaxBBWidthPct {
			reasons = append(reasons, fmt.Sprintf("bb_width_pct>%.1f", cfg.MaxBBWidthPct))
		}
	}
	return reasons
}

// ApplyFilters returns the bundles that clear every configured bound.
// Rejections are logged per symbol and never abort the scan.
func ApplyFilters(bundles []scoring.ScoreBundle, cfg FilterConfig) []scoring.ScoreBundle {
	kept := make([]scoring.ScoreBundle, 0, len(bundles))
	for _, b := range bundles {
		reasons := passesFilters(b, cfg)
		if len(reasons) == 0 {
			kept = append(kept, b)
			continue
		}
		log.Debug().
			Str("symbol", b.Symbol).
			Str("reasons", strings.Join(reasons, ",")).
			Msg("symbol rejected by ranking filters")
	}
	log.Info().
		Int("received", len(bundles)).
		Int("kept", len(kept)).
		Int("dropped", len(bundles)-len(kept)).
		Msg("ranking filters applied")
	return kept
}
