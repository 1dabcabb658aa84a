package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/meridianscan/meridian/internal/net/ratelimit"
)

const (
	binanceSpotURL    = "https://api.binance.com"
	binanceFuturesURL = "https://fapi.binance.com"
)

// BinanceProvider fetches spot klines and futures derivatives data from
// the keyless public Binance endpoints. Every call goes through a
// per-endpoint rate limiter and a shared circuit breaker.
type BinanceProvider struct {
	spotURL    string
	futuresURL string
	quoteAsset string
	client     *http.Client
	limiter    *ratelimit.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewBinanceProvider builds a provider for the given quote asset
// universe (e.g. "USDT").
func NewBinanceProvider(quoteAsset string) *BinanceProvider {
	settings := gobreaker.Settings{
		Name:     "binance",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
	}
	return &BinanceProvider{
		spotURL:    binanceSpotURL,
		futuresURL: binanceFuturesURL,
		quoteAsset: quoteAsset,
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    ratelimit.NewLimiter(15, 20),
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// getJSON performs a rate-limited, breaker-guarded GET and decodes the
// body into out.
func (p *BinanceProvider) getJSON(ctx context.Context, endpoint, fullURL string, out interface{}) error {
	if err := p.limiter.Wait(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := p.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d from %s", resp.StatusCode, endpoint)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body.([]byte), out)
}

// FetchOHLCV returns up to limit klines, oldest first.
func (p *BinanceProvider) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", timeframe)
	params.Set("limit", strconv.Itoa(limit))
	fullURL := fmt.Sprintf("%s/api/v3/klines?%s", p.spotURL, params.Encode())

	// Klines come as positional arrays of mixed strings and numbers.
	var raw [][]json.RawMessage
	if err := p.getJSON(ctx, "klines", fullURL, &raw); err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, timeframe, err)
	}

	bars := make([]Bar, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			continue
		}
		open, err1 := parseQuotedFloat(row[1])
		high, err2 := parseQuotedFloat(row[2])
		low, err3 := parseQuotedFloat(row[3])
		closePx, err4 := parseQuotedFloat(row[4])
		volume, err5 := parseQuotedFloat(row[5])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		bars = append(bars, Bar{
			Symbol:    symbol,
			Timeframe: timeframe,
			OpenTime:  time.UnixMilli(openMs).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePx,
			Volume:    volume,
		})
	}
	return bars, nil
}

// FetchDerivatives returns the funding/open-interest snapshot for a
// symbol. Fields the futures API cannot serve stay nil; the call itself
// never fails the scan.
func (p *BinanceProvider) FetchDerivatives(ctx context.Context, symbol string) (DerivativesMetrics, error) {
	metrics := DerivativesMetrics{Symbol: symbol}

	var premium struct {
		Symbol          string `json:"symbol"`
		LastFundingRate string `json:"lastFundingRate"`
	}
	premiumURL := fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", p.futuresURL, url.QueryEscape(symbol))
	if err := p.getJSON(ctx, "premiumIndex", premiumURL, &premium); err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("funding rate unavailable")
	} else if rate, err := strconv.ParseFloat(premium.LastFundingRate, 64); err == nil {
		metrics.FundingRate = &rate
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("period", "1h")
	params.Set("limit", "2")
	oiURL := fmt.Sprintf("%s/futures/data/openInterestHist?%s", p.futuresURL, params.Encode())

	var oiHist []struct {
		SumOpenInterest string `json:"sumOpenInterest"`
	}
	if err := p.getJSON(ctx, "openInterestHist", oiURL, &oiHist); err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("open interest unavailable")
		return metrics, nil
	}

	if len(oiHist) > 0 {
		if latest, err := strconv.ParseFloat(oiHist[len(oiHist)-1].SumOpenInterest, 64); err == nil {
			metrics.OpenInterest = &latest
			if len(oiHist) > 1 {
				if prev, err := strconv.ParseFloat(oiHist[0].SumOpenInterest, 64); err == nil && prev != 0 {
					change := (latest - prev) / prev * 100.0
					metrics.OIChangePct = &change
				}
			}
		}
	}
	return metrics, nil
}

// DiscoverUniverse lists all actively trading spot symbols quoted in the
// configured asset.
func (p *BinanceProvider) DiscoverUniverse(ctx context.Context) ([]SymbolMeta, error) {
	fullURL := p.spotURL + "/api/v3/exchangeInfo"

	var info struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Status     string `json:"status"`
		} `json:"symbols"`
	}
	if err := p.getJSON(ctx, "exchangeInfo", fullURL, &info); err != nil {
		return nil, fmt.Errorf("discover universe: %w", err)
	}

	var metas []SymbolMeta
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.QuoteAsset != p.quoteAsset {
			continue
		}
		metas = append(metas, SymbolMeta{
			Symbol:   s.Symbol,
			Base:     s.BaseAsset,
			Quote:    s.QuoteAsset,
			Exchange: "binance",
		})
	}
	log.Info().Int("symbols", len(metas)).Str("quote", p.quoteAsset).Msg("universe discovered")
	return metas, nil
}

// parseQuotedFloat decodes a JSON string like "123.45" into a float.
func parseQuotedFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
