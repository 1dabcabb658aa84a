// Package config loads the scanner configuration from YAML. Every field
// has a working default; a missing file or a partial file is never fatal.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/meridianscan/meridian/internal/alerts"
	"github.com/meridianscan/meridian/internal/patterns"
	"github.com/meridianscan/meridian/internal/ranking"
	"github.com/meridianscan/meridian/internal/regime"
)

// DataConfig controls universe discovery and bar fetching.
type DataConfig struct {
	Exchange        string   `yaml:"exchange"`
	QuoteAsset      string   `yaml:"quote_asset"`
	Timeframes      []string `yaml:"timeframes"`
	BarLimit        int      `yaml:"bar_limit"`
	BenchmarkSymbol string   `yaml:"benchmark_symbol"`
	MaxConcurrency  int      `yaml:"max_concurrency"`
}

// CacheConfig controls the optional Redis bar cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// ConfluenceConfig holds the regime-to-weights tables.
type ConfluenceConfig struct {
	DefaultRegime string                        `yaml:"default_regime"`
	RegimeWeights map[string]map[string]float64 `yaml:"regime_weights"`
}

// PatternsConfig groups the per-pattern parameter blocks.
type PatternsConfig struct {
	Breakout      patterns.BreakoutConfig      `yaml:"breakout"`
	Pullback      patterns.PullbackConfig      `yaml:"pullback"`
	Squeeze       patterns.SqueezeConfig       `yaml:"volatility_squeeze"`
	RSIDivergence patterns.RSIDivergenceConfig `yaml:"rsi_divergence"`
}

// ReportsConfig controls the markdown daily report.
type ReportsConfig struct {
	TopN      int    `yaml:"top_n"`
	OutputDir string `yaml:"output_dir"`
}

// ServerConfig controls the metrics/health HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the full scanner configuration.
type Config struct {
	Data       DataConfig        `yaml:"data"`
	Cache      CacheConfig       `yaml:"cache"`
	Regimes    regime.Thresholds `yaml:"regimes"`
	Confluence ConfluenceConfig  `yaml:"confluence"`
	Patterns   PatternsConfig    `yaml:"patterns"`
	Ranking    ranking.Config    `yaml:"ranking"`
	Reports    ReportsConfig     `yaml:"reports"`
	Alerts     alerts.Config     `yaml:"alerts"`
	Server     ServerConfig      `yaml:"server"`
}

// Default returns a configuration that works without any file on disk.
func Default() Config {
	return Config{
		Data: DataConfig{
			Exchange:        "binance",
			QuoteAsset:      "USDT",
			Timeframes:      []string{"1d"},
			BarLimit:        200,
			BenchmarkSymbol: "BTCUSDT",
			MaxConcurrency:  8,
		},
		Cache: CacheConfig{
			Addr:       "localhost:6379",
			TTLSeconds: 300,
		},
		Regimes: regime.DefaultThresholds(),
		Confluence: ConfluenceConfig{
			DefaultRegime: regime.Sideways,
			RegimeWeights: DefaultRegimeWeights(),
		},
		Patterns: PatternsConfig{
			Breakout:      patterns.DefaultBreakoutConfig(),
			Pullback:      patterns.DefaultPullbackConfig(),
			Squeeze:       patterns.DefaultSqueezeConfig(),
			RSIDivergence: patterns.DefaultRSIDivergenceConfig(),
		},
		Ranking: ranking.DefaultConfig(),
		Reports: ReportsConfig{
			TopN:      10,
			OutputDir: "reports",
		},
		Alerts: alerts.DefaultConfig(),
		Server: ServerConfig{
			Addr: ":9090",
		},
	}
}

// DefaultRegimeWeights returns the stock regime-to-weights tables. Bull
// leans on trend and relative strength, bear on volatility and
// positioning, sideways and unknown stay balanced.
func DefaultRegimeWeights() map[string]map[string]float64 {
	return map[string]map[string]float64{
		regime.Bull: {
			"trend":       0.30,
			"rs":          0.25,
			"volume":      0.20,
			"positioning": 0.15,
			"volatility":  0.10,
		},
		regime.Bear: {
			"trend":       0.15,
			"rs":          0.15,
			"volume":      0.15,
			"volatility":  0.30,
			"positioning": 0.25,
		},
		regime.Sideways: {
			"trend":       0.20,
			"rs":          0.20,
			"volume":      0.20,
			"volatility":  0.20,
			"positioning": 0.20,
		},
		regime.Unknown: {
			"trend":       0.20,
			"rs":          0.20,
			"volume":      0.20,
			"volatility":  0.20,
			"positioning": 0.20,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path (or
// empty string) yields the defaults. A file that is not valid YAML at
// all is an error; a value that cannot be parsed into its field keeps
// the default with a logged warning, so one threshold typo never takes
// the scanner down.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		// Type errors leave the affected fields at their defaults while
		// the rest of the tree decodes normally.
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		for _, msg := range typeErr.Errors {
			log.Warn().Str("path", path).Str("error", msg).Msg("config value unparseable, keeping default")
		}
	}
	cfg.normalize()
	return cfg, nil
}

// normalize backfills fields a partial file may have zeroed out.
func (c *Config) normalize() {
	def := Default()
	if len(c.Data.Timeframes) == 0 {
		c.Data.Timeframes = def.Data.Timeframes
	}
	if c.Data.BarLimit <= 0 {
		c.Data.BarLimit = def.Data.BarLimit
	}
	if c.Data.MaxConcurrency <= 0 {
		c.Data.MaxConcurrency = def.Data.MaxConcurrency
	}
	if c.Data.BenchmarkSymbol == "" {
		c.Data.BenchmarkSymbol = def.Data.BenchmarkSymbol
	}
	if c.Confluence.DefaultRegime == "" {
		c.Confluence.DefaultRegime = def.Confluence.DefaultRegime
	}
	if len(c.Confluence.RegimeWeights) == 0 {
		c.Confluence.RegimeWeights = def.Confluence.RegimeWeights
	}
	if c.Alerts.StateFile == "" {
		c.Alerts.StateFile = def.Alerts.StateFile
	}
	if len(c.Alerts.RSITimeframes) == 0 {
		c.Alerts.RSITimeframes = def.Alerts.RSITimeframes
	}
	if c.Reports.OutputDir == "" {
		c.Reports.OutputDir = def.Reports.OutputDir
	}
}

// PrimaryTimeframe returns the first configured timeframe.
func (c Config) PrimaryTimeframe() string {
	if len(c.Data.Timeframes) == 0 {
		return "1d"
	}
	return c.Data.Timeframes[0]
}
