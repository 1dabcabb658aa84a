package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianscan/meridian/internal/data"
)

func TestComputePositioning(t *testing.T) {
	t.Run("nil snapshot", func(t *testing.T) {
		f := ComputePositioning(nil)
		assert.False(t, f.HasData)
		assert.Equal(t, 0.0, f.Bundle()[FlagPositioningData])
	})

	t.Run("empty snapshot", func(t *testing.T) {
		f := ComputePositioning(&data.DerivativesMetrics{Symbol: "BTCUSDT"})
		assert.False(t, f.HasData)
	})

	t.Run("funding only", func(t *testing.T) {
		funding := 0.0003
		f := ComputePositioning(&data.DerivativesMetrics{Symbol: "BTCUSDT", FundingRate: &funding})
		assert.True(t, f.HasData)
		assert.Equal(t, 0.0003, f.FundingRate)
		assert.Equal(t, 0.0, f.OIChangePct)
	})

	t.Run("both fields", func(t *testing.T) {
		funding, oi := -0.0005, 12.5
		f := ComputePositioning(&data.DerivativesMetrics{
			Symbol:      "ETHUSDT",
			FundingRate: &funding,
			OIChangePct: &oi,
		})
		assert.True(t, f.HasData)
		b := f.Bundle()
		assert.Equal(t, -0.0005, b[KeyPositioningFunding])
		assert.Equal(t, 12.5, b[KeyPositioningOIChange])
		assert.Equal(t, 1.0, b[FlagPositioningData])
	})
}
