package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/patterns"
	"github.com/meridianscan/meridian/internal/regime"
	"github.com/meridianscan/meridian/internal/scoring"
)

// TypeToggles enables or disables individual alert reasons. All default
// to enabled via DefaultConfig.
type TypeToggles struct {
	HighConfluence   bool `yaml:"high_confluence"`
	VolumeSpike      bool `yaml:"volume_spike"`
	SqueezeCandidate bool `yaml:"squeeze_candidate"`
	RSIDivergence    bool `yaml:"rsi_divergence"`
	RegimeChange     bool `yaml:"regime_change"`
}

// Config tunes the alert engine.
type Config struct {
	Enabled              bool          `yaml:"enabled"`
	StateFile            string        `yaml:"state_file"`
	CooldownMinutes      int           `yaml:"cooldown_minutes"`
	MinCSDelta           float64       `yaml:"min_cs_delta"`
	MinConfluenceScore   float64       `yaml:"min_confluence_score"`
	MinTrendScore        float64       `yaml:"min_trend_score"`
	MinVolumeScore       float64       `yaml:"min_volume_score"`
	MinPositioningScore  float64       `yaml:"min_positioning_score"`
	VolumeSpikeMinScore  float64       `yaml:"volume_spike_min_volume_score"`
	SqueezeMaxVolScore   float64       `yaml:"squeeze_max_vol_score"`
	SqueezeMaxBBWidthPct float64       `yaml:"squeeze_max_bbw_pct"`
	RequireUptrendRegime bool          `yaml:"require_uptrend_regime"`
	RSITimeframes        []string      `yaml:"rsi_divergence_timeframes"`
	Types                TypeToggles   `yaml:"types"`
	Webhook              WebhookConfig `yaml:"webhook"`
}

// DefaultConfig returns the stock alert parameters with every reason
// enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		StateFile:            "alerts_state.json",
		CooldownMinutes:      60,
		MinCSDelta:           3.0,
		MinConfluenceScore:   60.0,
		MinTrendScore:        55.0,
		MinVolumeScore:       50.0,
		MinPositioningScore:  50.0,
		VolumeSpikeMinScore:  75.0,
		SqueezeMaxVolScore:   40.0,
		SqueezeMaxBBWidthPct: 6.0,
		RSITimeframes:        []string{"4h"},
		Types: TypeToggles{
			HighConfluence:   true,
			VolumeSpike:      true,
			SqueezeCandidate: true,
			RSIDivergence:    true,
			RegimeChange:     true,
		},
	}
}

// Cooldown returns the configured cooldown as a duration.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// Engine evaluates alert triggers against ranked bundles and dedupes
// them through the state store.
type Engine struct {
	cfg   Config
	store Store
}

// NewEngine builds an engine over the given store. A nil store falls
// back to a file store at the configured path.
func NewEngine(cfg Config, store Store) *Engine {
	if store == nil {
		store = NewFileStore(cfg.StateFile)
	}
	return &Engine{cfg: cfg, store: store}
}

// Run evaluates every trigger for the ranked bundles, filters the
// results through persisted state, appends the one-shot regime-change
// check and saves the state back. Pattern signals are keyed by symbol.
// The returned events are ready for the notifiers; the count is how
// many candidates the state filter suppressed.
func (e *Engine) Run(bundles []scoring.ScoreBundle, signals map[string][]patterns.Signal, health regime.MarketHealth, now time.Time) ([]Event, int, error) {
	if !e.cfg.Enabled {
		log.Info().Msg("alerts disabled in config")
		return nil, 0, nil
	}

	state, err := e.store.Load()
	if err != nil {
		return nil, 0, fmt.Errorf("load alert state: %w", err)
	}

	symbolEvents := e.buildSymbolEvents(bundles, signals, health, now)
	kept, suppressed := FilterWithState(symbolEvents, state, e.cfg.Cooldown(), e.cfg.MinCSDelta, now)

	if regimeEvent := e.buildRegimeChangeEvent(health, state, now); regimeEvent != nil {
		kept = append(kept, *regimeEvent)
	}

	if err := e.store.Save(state); err != nil {
		return nil, 0, fmt.Errorf("save alert state: %w", err)
	}

	log.Info().
		Int("candidates", len(symbolEvents)).
		Int("suppressed", suppressed).
		Int("emitted", len(kept)).
		Msg("alert scan complete")
	return kept, suppressed, nil
}

// buildSymbolEvents evaluates the independent per-symbol triggers. The
// reasons are not mutually exclusive: one symbol may fire several in a
// single scan.
func (e *Engine) buildSymbolEvents(bundles []scoring.ScoreBundle, signals map[string][]patterns.Signal, health regime.MarketHealth, now time.Time) []Event {
	cfg := e.cfg

	if cfg.RequireUptrendRegime && health.Regime != regime.Bull && health.Regime != regime.Sideways {
		log.Info().
			Str("regime", health.Regime).
			Msg("symbol alerts disabled: regime gate requires bull or sideways")
		return nil
	}

	var events []Event
	for _, b := range bundles {
		cs := b.ConfluenceScore

		if cfg.Types.HighConfluence &&
			cs >= cfg.MinConfluenceScore &&
			b.Score(scoring.KeyTrendScore) >= cfg.MinTrendScore &&
			b.Score(scoring.KeyVolumeScore) >= cfg.MinVolumeScore &&
			b.Score(scoring.KeyPositioningScore) >= cfg.MinPositioningScore {
			events = append(events, makeSymbolEvent(b, health, ReasonHighConfluence, now))
		}

		if cfg.Types.VolumeSpike && b.Score(scoring.KeyVolumeScore) >= cfg.VolumeSpikeMinScore {
			events = append(events, makeSymbolEvent(b, health, ReasonVolumeSpike, now))
		}

		if cfg.Types.SqueezeCandidate && b.Features != nil {
			bbw, hasBBW := b.Features[features.KeyVolatilityBBWidthPct]
			if hasBBW &&
				b.Score(scoring.KeyVolatilityScore) <= cfg.SqueezeMaxVolScore &&
				bbw <= cfg.SqueezeMaxBBWidthPct {
				events = append(events, makeSymbolEvent(b, health, ReasonSqueezeCandidate, now))
			}
		}

		if cfg.Types.RSIDivergence {
			for _, sig := range signals[b.Symbol] {
				if sig.Pattern != patterns.NameRSIDivergence || !sig.Triggered {
					continue
				}
				reason := DivergenceReason(sig.Direction, sig.Timeframe)
				events = append(events, makeSymbolEvent(b, health, reason, now))
			}
		}
	}
	return events
}

// buildRegimeChangeEvent is the one-shot global check. On the first run
// it records the regime without alerting; afterwards it alerts exactly
// once per flip and overwrites the stored value.
func (e *Engine) buildRegimeChangeEvent(health regime.MarketHealth, state *State, now time.Time) *Event {
	if !e.cfg.Types.RegimeChange {
		return nil
	}

	prev := state.GlobalRegime
	current := health.Regime

	if prev == "" {
		state.GlobalRegime = current
		return nil
	}
	if prev == current {
		return nil
	}
	state.GlobalRegime = current

	msg := fmt.Sprintf("Market regime changed from %s to %s (benchmark trend %.1f, breadth %.1f%%)",
		strings.ToUpper(prev), strings.ToUpper(current),
		regime.ValueOr(health.BenchmarkTrend, 50.0), regime.ValueOr(health.BreadthPct, 50.0))

	evt := NewEvent(GlobalSymbol, ReasonRegimeChange, msg, 0.0, nil, current, now)
	return &evt
}

func makeSymbolEvent(b scoring.ScoreBundle, health regime.MarketHealth, reason string, now time.Time) Event {
	msg := fmt.Sprintf("CS: %.1f | Trend: %.1f | Vol: %.1f | Volu: %.1f | RS: %.1f | Pos: %.1f | Regime: %s (benchmark trend %.1f, breadth %.1f%%)",
		b.ConfluenceScore,
		b.Score(scoring.KeyTrendScore),
		b.Score(scoring.KeyVolatilityScore),
		b.Score(scoring.KeyVolumeScore),
		b.Score(scoring.KeyRSScore),
		b.Score(scoring.KeyPositioningScore),
		strings.ToUpper(health.Regime),
		regime.ValueOr(health.BenchmarkTrend, 50.0),
		regime.ValueOr(health.BreadthPct, 50.0))

	components := make(map[string]float64, len(scoring.ComponentKeys))
	for _, key := range scoring.ComponentKeys {
		components[key] = b.Score(key)
	}
	return NewEvent(b.Symbol, reason, msg, b.ConfluenceScore, components, health.Regime, now)
}
