package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridianscan/meridian/internal/alerts"
	"github.com/meridianscan/meridian/internal/config"
	"github.com/meridianscan/meridian/internal/data"
	"github.com/meridianscan/meridian/internal/metrics"
	"github.com/meridianscan/meridian/internal/pipeline"
	"github.com/meridianscan/meridian/internal/ranking"
	"github.com/meridianscan/meridian/internal/reports"
)

const version = "v0.3.0"

var (
	configPath string
	verbose    bool
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "meridian",
		Short:   "Confluence scanner for crypto markets",
		Version: version,
		Long: `Meridian scores a universe of instruments on each scan: trend,
volatility, volume, relative strength and positioning blend into one
regime-weighted confluence score per symbol, with pattern detection,
ranked leaderboards and deduplicated alerts on top.`,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Score and rank the universe once",
		Long:  "Runs one full scan and prints the ranked confluence table",
		RunE:  runScan,
	}
	scanCmd.Flags().Int("top-n", 0, "Number of top symbols to show (0 = config default)")

	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Run a scan and emit state-filtered alerts",
		Long:  "Scans the universe, evaluates alert triggers and dispatches deduplicated events to the configured notifiers",
		RunE:  runAlerts,
	}
	alertsCmd.Flags().Int("top-n", 0, "Number of ranked symbols to consider (0 = config default)")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the markdown daily report",
		Long:  "Runs one scan and writes a timestamped markdown report to the configured output directory",
		RunE:  runReport,
	}
	reportCmd.Flags().Int("top-n", 0, "Number of top symbols in the report (0 = config default)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Scan on an interval and serve Prometheus metrics",
		Long:  "Runs scans on a fixed interval, dispatches alerts, and exposes /metrics and /healthz",
		RunE:  runServe,
	}
	serveCmd.Flags().Duration("interval", time.Hour, "Time between scans")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// buildScanner wires the provider stack (exchange client, optional Redis
// bar cache) and the scan pipeline from config.
func buildScanner(cfg config.Config, m *metrics.Registry) *pipeline.Scanner {
	var provider data.Provider = data.NewBinanceProvider(cfg.Data.QuoteAsset)

	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		provider = data.NewCachedProvider(provider, data.NewBarCache(client, ttl))
		log.Info().Str("addr", cfg.Cache.Addr).Msg("bar cache enabled")
	}

	return pipeline.NewScanner(provider, cfg, m)
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	topN, _ := cmd.Flags().GetInt("top-n")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	result, err := buildScanner(cfg, nil).Scan(ctx, topN)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	ranked := result.Ranking.Board(ranking.BoardTopConfluence)
	if len(ranked) == 0 {
		log.Warn().Msg("no symbols passed filters")
		return nil
	}
	fmt.Println("\n" + reports.ConsoleTable(ranked, result.Health))
	return nil
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	topN, _ := cmd.Flags().GetInt("top-n")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	result, err := buildScanner(cfg, nil).Scan(ctx, topN)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return dispatchAlerts(ctx, cfg, nil, result)
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	topN, _ := cmd.Flags().GetInt("top-n")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	result, err := buildScanner(cfg, nil).Scan(ctx, topN)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	ranked := result.Ranking.Board(ranking.BoardTopConfluence)
	if len(ranked) == 0 {
		log.Warn().Msg("no symbols passed filters, skipping report")
		return nil
	}

	now := time.Now().UTC()
	fmt.Println("\n" + reports.ConsoleTable(ranked, result.Health))
	content := reports.BuildMarkdown(ranked, result.Health, cfg.PrimaryTimeframe(), cfg.Data.Exchange, now)
	path, err := reports.WriteMarkdown(content, cfg.Reports.OutputDir, now)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("interval")

	m := metrics.NewRegistry()
	scanner := buildScanner(cfg, m)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("metrics server listening")
		if err := http.ListenAndServe(cfg.Server.Addr, m.Handler()); err != nil {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		result, err := scanner.Scan(ctx, 0)
		if err != nil {
			log.Error().Err(err).Msg("scan failed")
			return
		}
		if err := dispatchAlerts(ctx, cfg, m, result); err != nil {
			log.Error().Err(err).Msg("alert dispatch failed")
		}
	}

	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		runOnce()
	}
	return nil
}

// dispatchAlerts runs the alert engine over a scan result and fans the
// surviving events out to the notifiers.
func dispatchAlerts(ctx context.Context, cfg config.Config, m *metrics.Registry, result *pipeline.Result) error {
	engine := alerts.NewEngine(cfg.Alerts, nil)
	events, suppressed, err := engine.Run(result.Ranking.Filtered, result.Signals, result.Health, time.Now().UTC())
	if err != nil {
		return err
	}
	if m != nil {
		m.AlertsSuppressed.Add(float64(suppressed))
		for _, evt := range events {
			m.AlertsEmitted.WithLabelValues(evt.Reason).Inc()
		}
	}
	if len(events) == 0 {
		log.Info().Msg("no alerts to send")
		return nil
	}

	notifiers := []alerts.Notifier{alerts.ConsoleNotifier{}}
	if cfg.Alerts.Webhook.Enabled {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(cfg.Alerts.Webhook, nil))
	}
	alerts.Dispatch(ctx, events, notifiers)
	return nil
}
