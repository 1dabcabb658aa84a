// Package ranking filters scored symbols and compiles the named
// leaderboards the reports and alert stage consume.
package ranking

import (
	"sort"

	"github.com/meridianscan/meridian/internal/patterns"
	"github.com/meridianscan/meridian/internal/scoring"
)

// Leaderboard names.
const (
	BoardAllByConfluence     = "all_by_confluence"
	BoardTopConfluence       = "top_confluence"
	BoardTopRelativeStrength = "top_relative_strength"
	BoardVolumeSurge         = "volume_surge"
	BoardVolatilitySqueeze   = "volatility_squeeze"
	BoardWatchlist           = "watchlist"
)

// patternBoards lists the pattern names that get a dedicated leaderboard.
var patternBoards = []string{
	patterns.NameBreakout,
	patterns.NamePullback,
	patterns.NameVolatilitySqueeze,
	patterns.NameRSIDivergence,
}

// PatternBoard returns the leaderboard key for a pattern name. The prefix
// keeps pattern boards from colliding with the score-based boards.
func PatternBoard(pattern string) string {
	return "pattern_" + pattern
}

// Config tunes the ranking stage. TopN of zero means "use the reports
// top-N, or the full filtered set".
type Config struct {
	TopN                int          `yaml:"top_n"`
	MaxSymbols          int          `yaml:"max_symbols"`
	VolumeSurgeFloor    float64      `yaml:"volume_surge_floor"`
	SqueezeFloor        float64      `yaml:"volatility_squeeze_floor"`
	WatchlistConfluence float64      `yaml:"watchlist_confluence_floor"`
	Filters             FilterConfig `yaml:"filters"`
}

// DefaultConfig returns the stock ranking parameters. The surge and
// squeeze floors mirror the alert thresholds so the boards and the alert
// stream agree on what counts as notable.
func DefaultConfig() Config {
	return Config{
		VolumeSurgeFloor:    75.0,
		SqueezeFloor:        60.0,
		WatchlistConfluence: 70.0,
	}
}

// Output is the ranking stage result: the bundles that survived the hard
// filters, plus the named leaderboards, each a subsequence of Filtered.
type Output struct {
	Filtered     []scoring.ScoreBundle            `json:"filtered"`
	Leaderboards map[string][]scoring.ScoreBundle `json:"leaderboards"`
}

// Board returns a leaderboard by name, nil when absent.
func (o Output) Board(name string) []scoring.ScoreBundle {
	if o.Leaderboards == nil {
		return nil
	}
	return o.Leaderboards[name]
}

// ResolveTopN picks the effective top-N: an explicit argument wins, then
// the ranking config, then the reports config, then the full set size.
func ResolveTopN(arg, rankingTopN, reportsTopN, total int) int {
	switch {
	case arg > 0:
		return arg
	case rankingTopN > 0:
		return rankingTopN
	case reportsTopN > 0:
		return reportsTopN
	default:
		return total
	}
}

// Rank filters the scored bundles and compiles every leaderboard. topN
// is the explicit per-call override (0 for none); reportsTopN is the
// reports-config fallback.
func Rank(bundles []scoring.ScoreBundle, cfg Config, topN, reportsTopN int) Output {
	filtered := ApplyFilters(bundles, cfg.Filters)
	n := ResolveTopN(topN, cfg.TopN, reportsTopN, len(filtered))

	byConfluence := sortedBy(filtered, func(b scoring.ScoreBundle) float64 {
		return b.ConfluenceScore
	})

	boards := map[string][]scoring.ScoreBundle{
		BoardAllByConfluence: byConfluence,
		BoardTopConfluence:   truncate(byConfluence, n),
		BoardTopRelativeStrength: truncate(sortedBy(filtered, func(b scoring.ScoreBundle) float64 {
			return b.Score(scoring.KeyRSScore)
		}), n),
		BoardVolumeSurge: truncate(sortedBy(selectBy(filtered, func(b scoring.ScoreBundle) bool {
			return b.Score(scoring.KeyVolumeScore) >= cfg.VolumeSurgeFloor
		}), func(b scoring.ScoreBundle) float64 {
			return b.Score(scoring.KeyVolumeScore)
		}), n),
		BoardVolatilitySqueeze: truncate(sortedBy(selectBy(filtered, func(b scoring.ScoreBundle) bool {
			return b.Score(scoring.KeyVolatilityScore) >= cfg.SqueezeFloor
		}), func(b scoring.ScoreBundle) float64 {
			return b.Score(scoring.KeyVolatilityScore)
		}), n),
		// The watchlist is deliberately unbounded: it answers "what is
		// worth watching", not "what are the N best".
		BoardWatchlist: sortedBy(selectBy(filtered, func(b scoring.ScoreBundle) bool {
			return b.ConfluenceScore >= cfg.WatchlistConfluence
		}), func(b scoring.ScoreBundle) float64 {
			return b.ConfluenceScore
		}),
	}

	for _, pattern := range patternBoards {
		name := pattern
		boards[PatternBoard(name)] = sortedBy(selectBy(filtered, func(b scoring.ScoreBundle) bool {
			return b.HasPattern(name)
		}), func(b scoring.ScoreBundle) float64 {
			return b.ConfluenceScore
		})
	}

	return Output{Filtered: filtered, Leaderboards: boards}
}

func selectBy(bundles []scoring.ScoreBundle, keep func(scoring.ScoreBundle) bool) []scoring.ScoreBundle {
	out := make([]scoring.ScoreBundle, 0, len(bundles))
	for _, b := range bundles {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// sortedBy returns a copy sorted descending by key, ties broken by
// symbol so board order is stable across runs.
func sortedBy(bundles []scoring.ScoreBundle, key func(scoring.ScoreBundle) float64) []scoring.ScoreBundle {
	out := make([]scoring.ScoreBundle, len(bundles))
	copy(out, bundles)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			return ki > kj
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func truncate(bundles []scoring.ScoreBundle, n int) []scoring.ScoreBundle {
	if n <= 0 || n >= len(bundles) {
		return bundles
	}
	return bundles[:n]
}
