package data

import (
	"context"

	"github.com/rs/zerolog/log"
)

// CachedProvider is a read-through decorator: bar fetches hit the cache
// first, everything else passes straight to the inner provider.
type CachedProvider struct {
	inner Provider
	cache *BarCache
}

// NewCachedProvider wraps a provider with a bar cache. A nil cache
// returns the inner provider unchanged.
func NewCachedProvider(inner Provider, cache *BarCache) Provider {
	if cache == nil {
		return inner
	}
	return &CachedProvider{inner: inner, cache: cache}
}

func (c *CachedProvider) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Bar, error) {
	if bars, ok := c.cache.GetBars(ctx, symbol, timeframe, limit); ok {
		return bars, nil
	}

	bars, err := c.inner.FetchOHLCV(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.cache.PutBars(ctx, symbol, timeframe, limit, bars); err != nil {
			log.Debug().Err(err).Str("symbol", symbol).Msg("bar cache write failed")
		}
	}
	return bars, nil
}

func (c *CachedProvider) FetchDerivatives(ctx context.Context, symbol string) (DerivativesMetrics, error) {
	return c.inner.FetchDerivatives(ctx, symbol)
}

func (c *CachedProvider) DiscoverUniverse(ctx context.Context) ([]SymbolMeta, error) {
	return c.inner.DiscoverUniverse(ctx)
}
