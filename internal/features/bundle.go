// Package features turns bar histories and derivatives snapshots into flat
// bundles of named numeric features. Every family emits a full stable-schema
// bundle even when history is insufficient, with a has_<family>_data flag in
// {0, 1} marking availability.
package features

// Stable feature keys. Downstream scoring, ranking and pattern code reads
// features exclusively through these names.
const (
	KeyTrendMAAlignment      = "trend_ma_alignment"
	KeyTrendPersistence      = "trend_persistence"
	KeyTrendDistanceFromMA   = "trend_distance_from_ma_pct"
	KeyTrendMASlope          = "trend_ma_slope_pct"
	KeyVolatilityATRPct      = "volatility_atr_pct_14"
	KeyVolatilityBBWidthPct  = "volatility_bb_width_pct_20"
	KeyVolatilityContraction = "volatility_contraction_ratio_60_20"
	KeyVolumeRVOL            = "volume_rvol_20_1"
	KeyVolumeTrendSlope      = "volume_trend_slope_pct_20_10"
	KeyVolumePercentile      = "volume_percentile_60"
	KeyRSRet20               = "rs_ret_20_pct"
	KeyRSRet60               = "rs_ret_60_pct"
	KeyRSRet120              = "rs_ret_120_pct"
	KeyRSRank20              = "rs_20_rank_pct"
	KeyRSRank60              = "rs_60_rank_pct"
	KeyRSRank120             = "rs_120_rank_pct"
	KeyPositioningFunding    = "positioning_funding_rate"
	KeyPositioningOIChange   = "positioning_oi_change_pct"

	FlagTrendData       = "has_trend_data"
	FlagVolatilityData  = "has_volatility_data"
	FlagVolumeData      = "has_volume_data"
	FlagRSData          = "has_rs_data"
	FlagPositioningData = "has_positioning_data"
)

// Bundle is a flat mapping from feature name to value.
type Bundle map[string]float64

// Merge copies all entries of other into b, overriding duplicates.
func (b Bundle) Merge(other Bundle) {
	for k, v := range other {
		b[k] = v
	}
}

// Get returns the named feature or def when absent.
func (b Bundle) Get(key string, def float64) float64 {
	if v, ok := b[key]; ok {
		return v
	}
	return def
}

// Has reports whether the named availability flag is set.
func (b Bundle) Has(flag string) bool {
	return b[flag] >= 1.0
}

func sma(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func lastN(values []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
