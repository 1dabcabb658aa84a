// Package reports renders the scan output as a console table and a
// markdown daily report.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meridianscan/meridian/internal/features"
	"github.com/meridianscan/meridian/internal/regime"
	"github.com/meridianscan/meridian/internal/scoring"
)

// rowExtras are the raw feature values shown alongside the scores.
type rowExtras struct {
	ATRPct     float64
	BBWidthPct float64
	Ret1M      float64
	Ret3M      float64
	Ret6M      float64
}

func extras(b scoring.ScoreBundle) rowExtras {
	return rowExtras{
		ATRPct:     b.Features.Get(features.KeyVolatilityATRPct, 0),
		BBWidthPct: b.Features.Get(features.KeyVolatilityBBWidthPct, 0),
		Ret1M:      b.Features.Get(features.KeyRSRet20, 0),
		Ret3M:      b.Features.Get(features.KeyRSRet60, 0),
		Ret6M:      b.Features.Get(features.KeyRSRet120, 0),
	}
}

// ConsoleTable renders the ranked bundles as a fixed-width table for the
// terminal.
func ConsoleTable(ranked []scoring.ScoreBundle, health regime.MarketHealth) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Market Regime: %s (benchmark trend: %.1f, breadth: %.1f%%)\n\n",
		strings.ToUpper(health.Regime),
		regime.ValueOr(health.BenchmarkTrend, 50.0),
		regime.ValueOr(health.BreadthPct, 50.0))

	header := "Rank  Symbol       CS    Trend   Vol   Volu    RS    Pos   ATR%   BBW%    1M%    3M%    6M%"
	sep := strings.Repeat("-", len(header))
	sb.WriteString(sep + "\n" + header + "\n" + sep + "\n")

	for i, b := range ranked {
		ex := extras(b)
		fmt.Fprintf(&sb, "%4d  %-10s  %5.1f  %7.1f  %5.1f  %5.1f  %6.1f  %6.1f  %6.1f  %6.1f  %6.1f  %6.1f  %6.1f\n",
			i+1, b.Symbol, b.ConfluenceScore,
			b.Score(scoring.KeyTrendScore),
			b.Score(scoring.KeyVolatilityScore),
			b.Score(scoring.KeyVolumeScore),
			b.Score(scoring.KeyRSScore),
			b.Score(scoring.KeyPositioningScore),
			ex.ATRPct, ex.BBWidthPct, ex.Ret1M, ex.Ret3M, ex.Ret6M)
	}
	sb.WriteString(sep)
	return sb.String()
}

// BuildMarkdown renders the daily report document.
func BuildMarkdown(ranked []scoring.ScoreBundle, health regime.MarketHealth, timeframe, exchange string, runAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Daily Confluence Report\n\n")
	fmt.Fprintf(&sb, "**Date:** %s  \n", runAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "**Timeframe:** %s  \n", timeframe)
	fmt.Fprintf(&sb, "**Exchange:** `%s`  \n", exchange)
	fmt.Fprintf(&sb, "**Top Symbols:** %d\n\n", len(ranked))

	sb.WriteString("## Market Regime\n\n")
	fmt.Fprintf(&sb, "- **Regime:** **%s**\n", strings.ToUpper(health.Regime))
	fmt.Fprintf(&sb, "- **Benchmark Trend Score:** %.1f\n", regime.ValueOr(health.BenchmarkTrend, 50.0))
	fmt.Fprintf(&sb, "- **Breadth:** %.1f%% of universe in uptrend\n\n", regime.ValueOr(health.BreadthPct, 50.0))
	sb.WriteString("---\n\n")

	sb.WriteString("**Legend**\n\n")
	sb.WriteString("- **CS** = Confluence Score (0-100)\n")
	sb.WriteString("- **Trend / Vol / Volu / RS / Pos** = component scores (0-100)\n")
	sb.WriteString("- **ATR%** = ATR(14) as % of price\n")
	sb.WriteString("- **BBW%** = Bollinger Band width as % of mid\n")
	sb.WriteString("- **1M/3M/6M%** = returns over 20/60/120 bars\n\n")
	sb.WriteString("---\n\n")

	sb.WriteString("| # | Symbol | CS | Trend | Vol | Volu | RS | Pos | ATR% | BBW% | 1M% | 3M% | 6M% |\n")
	sb.WriteString("|:-:|:------:|:--:|:-----:|:---:|:----:|:--:|:---:|:----:|:----:|:---:|:---:|:---:|\n")
	for i, b := range ranked {
		ex := extras(b)
		fmt.Fprintf(&sb, "| %d | %s | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f | %.1f |\n",
			i+1, b.Symbol, b.ConfluenceScore,
			b.Score(scoring.KeyTrendScore),
			b.Score(scoring.KeyVolatilityScore),
			b.Score(scoring.KeyVolumeScore),
			b.Score(scoring.KeyRSScore),
			b.Score(scoring.KeyPositioningScore),
			ex.ATRPct, ex.BBWidthPct, ex.Ret1M, ex.Ret3M, ex.Ret6M)
	}
	sb.WriteString("\n")
	return sb.String()
}

// WriteMarkdown writes the report under outputDir with a timestamped
// filename, atomically via temp-then-rename, and returns the final path.
func WriteMarkdown(content, outputDir string, runAt time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("daily_report_%s.md", runAt.UTC().Format("2006-01-02_15-04"))
	path := filepath.Join(outputDir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize report: %w", err)
	}

	log.Info().Str("path", path).Int("bytes", len(content)).Msg("daily report written")
	return path, nil
}
