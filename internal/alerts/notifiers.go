package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier delivers a batch of alert events to one destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, events []Event) error
}

// Dispatch fans events out to every notifier. Delivery failures are
// logged and never abort the scan; the console notifier is the floor,
// anything else is best effort.
func Dispatch(ctx context.Context, events []Event, notifiers []Notifier) {
	if len(events) == 0 {
		return
	}
	for _, n := range notifiers {
		if err := n.Send(ctx, events); err != nil {
			log.Warn().Err(err).Str("notifier", n.Name()).Msg("alert delivery failed")
		}
	}
}

// ConsoleNotifier writes alerts to the structured log.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Name() string { return "console" }

func (ConsoleNotifier) Send(_ context.Context, events []Event) error {
	for _, evt := range events {
		log.Info().
			Str("symbol", evt.Symbol).
			Str("reason", evt.Reason).
			Float64("confluence_score", evt.ConfluenceScore).
			Str("regime", evt.Regime).
			Msg(evt.Message)
	}
	return nil
}

// WebhookConfig configures the generic JSON webhook notifier.
type WebhookConfig struct {
	Enabled        bool   `yaml:"enabled"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WebhookNotifier POSTs the event batch as JSON to a configured URL.
type WebhookNotifier struct {
	cfg    WebhookConfig
	client *http.Client
}

// NewWebhookNotifier builds a webhook notifier. A nil client gets a
// default with the configured timeout (5s fallback).
func NewWebhookNotifier(cfg WebhookConfig, client *http.Client) *WebhookNotifier {
	if client == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &WebhookNotifier{cfg: cfg, client: client}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Send(ctx context.Context, events []Event) error {
	if w.cfg.URL == "" {
		return fmt.Errorf("webhook notifier enabled but url is missing")
	}

	payload, err := json.Marshal(map[string]interface{}{"alerts": events})
	if err != nil {
		return fmt.Errorf("marshal alert batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
