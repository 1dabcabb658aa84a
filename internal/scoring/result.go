// Package scoring maps feature bundles to calibrated 0-100 component
// scores and blends them into a regime-weighted confluence score.
package scoring

import "github.com/meridianscan/meridian/internal/features"

// NeutralScore is emitted by every normalizer when its family's data is
// unavailable.
const NeutralScore = 50.0

// ScoreResult is the uniform output contract of every normalizer: a
// clamped 0-100 score, an availability flag, and a debug feature map that
// keeps raw inputs plus intermediate component scores for auditability.
// When Available is false the debug map stays anchored to the raw inputs.
type ScoreResult struct {
	Score     float64
	Available bool
	Features  features.Bundle
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp100(v float64) float64 {
	return clamp(v, 0.0, 100.0)
}
