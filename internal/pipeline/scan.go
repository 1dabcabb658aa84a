// Package pipeline orchestrates a full scan: universe discovery,
// concurrent data fetch, feature extraction, scoring, regime
// classification, pattern detection and ranking.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianscan/meridian/internal/config"
	"github.com/meridianscan/meridian/internal/data"
	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/metrics"
	"github.com/meridianscan/meridian/internal/patterns"
	"github.com/meridianscan/meridian/internal/ranking"
	"github.com/meridianscan/meridian/internal/regime"
	"github.com/meridianscan/meridian/internal/scoring"
)

// Scanner runs scans against a data provider.
type Scanner struct {
	provider data.Provider
	cfg      config.Config
	metrics  *metrics.Registry
}

// NewScanner builds a scanner. The metrics registry may be nil.
func NewScanner(provider data.Provider, cfg config.Config, m *metrics.Registry) *Scanner {
	return &Scanner{provider: provider, cfg: cfg, metrics: m}
}

// Result is the outcome of one scan pass.
type Result struct {
	Bundles []scoring.ScoreBundle
	Signals map[string][]patterns.Signal
	Health  regime.MarketHealth
	Ranking ranking.Output
}

// symbolData is the fetched raw material for one symbol.
type symbolData struct {
	meta        data.SymbolMeta
	bars        []data.Bar
	derivatives data.DerivativesMetrics
}

// scoredSymbol pairs the raw material with its features and component
// scores, before the regime-dependent confluence blend.
type scoredSymbol struct {
	sd    symbolData
	feats features.Bundle
	comp  map[string]float64
}

// Scan runs one full pass. An empty universe yields an unknown regime
// and no bundles; per-symbol fetch failures skip that symbol only.
func (s *Scanner) Scan(ctx context.Context, topN int) (*Result, error) {
	start := time.Now()

	universe, err := s.provider.DiscoverUniverse(ctx)
	if err != nil {
		return nil, err
	}
	if max := s.cfg.Ranking.MaxSymbols; max > 0 && len(universe) > max {
		universe = universe[:max]
	}
	if len(universe) == 0 {
		log.Warn().Msg("universe is empty, nothing to scan")
		return &Result{
			Health:  regime.MarketHealth{Regime: regime.Unknown},
			Signals: map[string][]patterns.Signal{},
		}, nil
	}

	fetched := s.fetchUniverse(ctx, universe)
	if len(fetched) == 0 {
		log.Warn().Msg("no symbol data could be fetched")
		return &Result{
			Health:  regime.MarketHealth{Regime: regime.Unknown},
			Signals: map[string][]patterns.Signal{},
		}, nil
	}

	barsBySymbol := make(map[string][]data.Bar, len(fetched))
	for _, sd := range fetched {
		barsBySymbol[sd.meta.Symbol] = sd.bars
	}
	universeReturns := features.ComputeUniverseReturns(barsBySymbol)

	// Component scores are regime-independent, so they come first and
	// feed both the market health snapshot and the confluence blend.
	scoredSymbols := make([]scoredSymbol, 0, len(fetched))
	for _, sd := range fetched {
		feats, comp := s.scoreComponents(sd, universeReturns)
		scoredSymbols = append(scoredSymbols, scoredSymbol{sd: sd, feats: feats, comp: comp})
	}

	health := s.computeMarketHealth(barsBySymbol, scoredSymbols)
	timeframe := s.cfg.PrimaryTimeframe()
	weights := scoring.ResolveWeights(health.Regime, s.cfg.Confluence.RegimeWeights, nil)

	bundles := make([]scoring.ScoreBundle, 0, len(scoredSymbols))
	signals := make(map[string][]patterns.Signal)
	for _, sc := range scoredSymbols {
		conf := scoring.ComputeConfluence(sc.comp, sc.feats, health.Regime, weights)

		bundle := scoring.ScoreBundle{
			Symbol:          sc.sd.meta.Symbol,
			Timeframe:       timeframe,
			Features:        sc.feats,
			Scores:          sc.comp,
			ConfluenceScore: conf.Score,
			Confidence:      conf.Confidence,
			Regime:          health.Regime,
			Weights:         conf.Weights,
		}

		symbolSignals := s.detectPatterns(ctx, bundle, sc.sd.bars, health.Regime)
		for _, sig := range symbolSignals {
			bundle.Patterns = append(bundle.Patterns, sig.Pattern)
		}
		bundles = append(bundles, bundle)
		if len(symbolSignals) > 0 {
			signals[bundle.Symbol] = symbolSignals
		}
	}

	output := ranking.Rank(bundles, s.cfg.Ranking, topN, s.cfg.Reports.TopN)

	if s.metrics != nil {
		s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
		s.metrics.SymbolsScanned.Set(float64(len(bundles)))
		s.metrics.SetRegime(health.Regime)
		s.metrics.ScansTotal.Inc()
	}
	log.Info().
		Int("universe", len(universe)).
		Int("scored", len(bundles)).
		Str("regime", health.Regime).
		Dur("elapsed", time.Since(start)).
		Msg("scan complete")

	return &Result{
		Bundles: bundles,
		Signals: signals,
		Health:  health,
		Ranking: output,
	}, nil
}

// fetchUniverse pulls bars and derivatives for every symbol with bounded
// concurrency. Symbols whose bar fetch fails or returns nothing are
// dropped; a failed derivatives fetch only loses the positioning fields.
func (s *Scanner) fetchUniverse(ctx context.Context, universe []data.SymbolMeta) []symbolData {
	timeframe := s.cfg.PrimaryTimeframe()
	limit := s.cfg.Data.BarLimit

	var (
		mu      sync.Mutex
		fetched []symbolData
		wg      sync.WaitGroup
	)
	// Hand-built configs may leave the concurrency at zero; an unbuffered
	// semaphore would block every worker forever.
	workers := s.cfg.Data.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for _, meta := range universe {
		wg.Add(1)
		go func(meta data.SymbolMeta) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			bars, err := s.provider.FetchOHLCV(ctx, meta.Symbol, timeframe, limit)
			if err != nil || len(bars) == 0 {
				if err != nil {
					log.Warn().Err(err).Str("symbol", meta.Symbol).Msg("bar fetch failed, skipping symbol")
				} else {
					log.Warn().Str("symbol", meta.Symbol).Msg("no bars returned, skipping symbol")
				}
				if s.metrics != nil {
					s.metrics.SymbolsSkipped.Inc()
				}
				return
			}

			derivatives, err := s.provider.FetchDerivatives(ctx, meta.Symbol)
			if err != nil {
				log.Debug().Err(err).Str("symbol", meta.Symbol).Msg("derivatives fetch failed")
				derivatives = data.DerivativesMetrics{Symbol: meta.Symbol}
			}

			mu.Lock()
			fetched = append(fetched, symbolData{meta: meta, bars: bars, derivatives: derivatives})
			mu.Unlock()
		}(meta)
	}
	wg.Wait()

	// Deterministic downstream order regardless of goroutine timing.
	sort.Slice(fetched, func(i, j int) bool {
		return fetched[i].meta.Symbol < fetched[j].meta.Symbol
	})
	return fetched
}

// scoreComponents extracts every feature family and runs the five
// normalizers for one symbol.
func (s *Scanner) scoreComponents(sd symbolData, universeReturns features.UniverseReturns) (features.Bundle, map[string]float64) {
	merged := features.Bundle{}
	merged.Merge(features.ComputeTrend(sd.bars).Bundle())
	merged.Merge(features.ComputeVolume(sd.bars).Bundle())
	merged.Merge(features.ComputeVolatility(sd.bars).Bundle())
	merged.Merge(features.ComputeRS(sd.meta.Symbol, sd.bars, universeReturns).Bundle())
	merged.Merge(features.ComputePositioning(&sd.derivatives).Bundle())

	results := map[string]scoring.ScoreResult{
		scoring.KeyTrendScore:       scoring.ScoreTrend(merged),
		scoring.KeyVolumeScore:      scoring.ScoreVolume(merged),
		scoring.KeyVolatilityScore:  scoring.ScoreVolatility(merged),
		scoring.KeyRSScore:          scoring.ScoreRelativeStrength(merged),
		scoring.KeyPositioningScore: scoring.ScorePositioning(merged),
	}

	comp := make(map[string]float64, len(results))
	for key, res := range results {
		comp[key] = res.Score
		merged.Merge(res.Features)
	}
	return merged, comp
}

// computeMarketHealth derives the regime snapshot from already-scored
// symbols: benchmark trend and volatility, breadth as the share of
// symbols trending up, and the universe-average positioning score.
func (s *Scanner) computeMarketHealth(barsBySymbol map[string][]data.Bar, scored []scoredSymbol) regime.MarketHealth {
	benchmark := s.cfg.Data.BenchmarkSymbol
	benchBars, ok := barsBySymbol[benchmark]
	if !ok {
		// Fall back to the first symbol alphabetically.
		symbols := make([]string, 0, len(barsBySymbol))
		for sym := range barsBySymbol {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		benchmark = symbols[0]
		benchBars = barsBySymbol[benchmark]
		log.Debug().Str("benchmark", benchmark).Msg("configured benchmark not in universe, using fallback")
	}

	benchFeats := features.Bundle{}
	benchFeats.Merge(features.ComputeTrend(benchBars).Bundle())
	benchFeats.Merge(features.ComputeVolatility(benchBars).Bundle())
	benchTrend := scoring.ScoreTrend(benchFeats).Score
	benchVol := scoring.ScoreVolatility(benchFeats).Score

	uptrending := 0
	trendValid := 0
	var positioningSum float64
	var positioningCount int
	for _, sc := range scored {
		if sc.feats.Has(features.FlagTrendData) {
			trendValid++
			if sc.comp[scoring.KeyTrendScore] >= 60.0 {
				uptrending++
			}
		}
		if sc.feats.Has(features.FlagPositioningData) {
			positioningSum += sc.comp[scoring.KeyPositioningScore]
			positioningCount++
		}
	}

	breadth := 50.0
	if trendValid > 0 {
		breadth = float64(uptrending) / float64(trendValid) * 100.0
	}
	avgPositioning := 50.0
	if positioningCount > 0 {
		avgPositioning = positioningSum / float64(positioningCount)
	}

	riskOn := regime.RiskOn(benchTrend, breadth, regime.VolComfort(benchVol), avgPositioning)

	health := regime.MarketHealth{
		BenchmarkTrend: regime.Float(benchTrend),
		BreadthPct:     regime.Float(breadth),
		RiskOn:         regime.Float(riskOn),
	}
	health.Regime = regime.Classify(health, s.cfg.Regimes)
	return health
}

// detectPatterns runs every detector against the primary-timeframe bars
// and reruns the RSI divergence detector on the extra alert timeframes.
func (s *Scanner) detectPatterns(ctx context.Context, bundle scoring.ScoreBundle, bars []data.Bar, regimeLabel string) []patterns.Signal {
	pctx := patterns.Context{
		Symbol:     bundle.Symbol,
		Timeframe:  bundle.Timeframe,
		Bars:       bars,
		Features:   bundle.Features,
		Scores:     bundle.Scores,
		Confluence: bundle.ConfluenceScore,
		Regime:     regimeLabel,
	}

	var out []patterns.Signal
	if sig := patterns.DetectBreakout(pctx, s.cfg.Patterns.Breakout); sig != nil {
		out = append(out, *sig)
	}
	if sig := patterns.DetectPullback(pctx, s.cfg.Patterns.Pullback); sig != nil {
		out = append(out, *sig)
	}
	if sig := patterns.DetectSqueeze(pctx, s.cfg.Patterns.Squeeze); sig != nil {
		out = append(out, *sig)
	}

	for _, tf := range s.divergenceTimeframes() {
		divCtx := pctx
		divCtx.Timeframe = tf
		divCtx.Bars = bars
		if tf != bundle.Timeframe {
			extraBars, err := s.provider.FetchOHLCV(ctx, bundle.Symbol, tf, s.cfg.Patterns.RSIDivergence.Lookback)
			if err != nil || len(extraBars) == 0 {
				continue
			}
			divCtx.Bars = extraBars
		}
		if sig := patterns.DetectRSIDivergence(divCtx, s.cfg.Patterns.RSIDivergence); sig != nil {
			out = append(out, *sig)
		}
	}
	return out
}

// divergenceTimeframes is the primary timeframe plus any extra alert
// timeframes, deduplicated in order.
func (s *Scanner) divergenceTimeframes() []string {
	seen := map[string]bool{}
	var tfs []string
	for _, tf := range append([]string{s.cfg.PrimaryTimeframe()}, s.cfg.Alerts.RSITimeframes...) {
		if tf == "" || seen[tf] {
			continue
		}
		seen[tf] = true
		tfs = append(tfs, tf)
	}
	return tfs
}
