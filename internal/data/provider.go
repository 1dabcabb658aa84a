package data

import "context"

// Provider is the market data collaborator consumed by the scan pipeline.
//
// Implementations may return an error or an empty slice on failure; the
// pipeline tolerates both and skips the symbol for the failing operation
// only. FetchDerivatives always returns a snapshot, possibly with all
// optional fields nil.
type Provider interface {
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]Bar, error)
	FetchDerivatives(ctx context.Context, symbol string) (DerivativesMetrics, error)
	DiscoverUniverse(ctx context.Context) ([]SymbolMeta, error)
}
