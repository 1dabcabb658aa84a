// Package regime derives a market-wide regime label from benchmark trend,
// breadth and an aggregate risk-on index.
package regime

// Regime labels.
const (
	Bull     = "bull"
	Bear     = "bear"
	Sideways = "sideways"
	Unknown  = "unknown"
)

// MarketHealth is a coarse snapshot of the overall market. All metrics are
// optional except the regime label, which defaults to "unknown".
type MarketHealth struct {
	Regime         string   `json:"regime"`
	BenchmarkTrend *float64 `json:"benchmark_trend,omitempty"`
	BreadthPct     *float64 `json:"breadth_pct,omitempty"`
	RiskOn         *float64 `json:"risk_on,omitempty"`
}

// Thresholds gates the bull and bear classifications. Bull requires all
// three minimums, bear all three maximums; anything else is sideways.
type Thresholds struct {
	BullMinRiskOn  float64 `yaml:"bull_min_risk_on"`
	BullMinBreadth float64 `yaml:"bull_min_breadth"`
	BullMinTrend   float64 `yaml:"bull_min_trend"`
	BearMaxRiskOn  float64 `yaml:"bear_max_risk_on"`
	BearMaxBreadth float64 `yaml:"bear_max_breadth"`
	BearMaxTrend   float64 `yaml:"bear_max_trend"`
}

// DefaultThresholds returns the stock classification gates.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BullMinRiskOn:  65.0,
		BullMinBreadth: 60.0,
		BullMinTrend:   60.0,
		BearMaxRiskOn:  35.0,
		BearMaxBreadth: 40.0,
		BearMaxTrend:   40.0,
	}
}

// Risk-on blend weights.
const (
	riskOnWeightTrend       = 0.40
	riskOnWeightBreadth     = 0.30
	riskOnWeightVolComfort  = 0.15
	riskOnWeightPositioning = 0.15
)

// VolComfort converts a benchmark volatility score into a comfort measure:
// 100 when the score sits at the neutral midpoint, dropping 2 points per
// point of deviation, clamped to [0, 100].
func VolComfort(benchmarkVolScore float64) float64 {
	offset := benchmarkVolScore - 50.0
	if offset < 0 {
		offset = -offset
	}
	comfort := 100.0 - offset*2.0
	if comfort < 0 {
		return 0.0
	}
	if comfort > 100 {
		return 100.0
	}
	return comfort
}

// RiskOn blends benchmark trend, breadth, volatility comfort and the
// universe-average positioning score into one 0-100 index.
func RiskOn(benchmarkTrend, breadthPct, volComfort, avgPositioning float64) float64 {
	r := riskOnWeightTrend*benchmarkTrend +
		riskOnWeightBreadth*breadthPct +
		riskOnWeightVolComfort*volComfort +
		riskOnWeightPositioning*avgPositioning
	if r < 0 {
		return 0.0
	}
	if r > 100 {
		return 100.0
	}
	return r
}

// Classify maps a market health snapshot to a regime label. "unknown" is
// reserved for the no-universe case and is decided by the caller; Classify
// itself only distinguishes bull, bear and sideways.
func Classify(health MarketHealth, t Thresholds) string {
	riskOn := ValueOr(health.RiskOn, 50.0)
	breadth := ValueOr(health.BreadthPct, 50.0)
	trend := ValueOr(health.BenchmarkTrend, 50.0)

	if riskOn >= t.BullMinRiskOn && breadth >= t.BullMinBreadth && trend >= t.BullMinTrend {
		return Bull
	}
	if riskOn <= t.BearMaxRiskOn && breadth <= t.BearMaxBreadth && trend <= t.BearMaxTrend {
		return Bear
	}
	return Sideways
}

// ValueOr dereferences an optional metric, falling back to def.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Float is a convenience for building optional health metrics.
func Float(v float64) *float64 {
	return &v
}
