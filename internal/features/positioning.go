package features

import "github.com/meridianscan/meridian/internal/data"

// PositioningFeatures is the typed record behind the positioning family.
// Values are raw pass-throughs from the derivatives snapshot.
type PositioningFeatures struct {
	FundingRate float64
	OIChangePct float64
	HasData     bool
}

// Bundle flattens the record into the stable feature schema.
func (f PositioningFeatures) Bundle() Bundle {
	flag := 0.0
	if f.HasData {
		flag = 1.0
	}
	return Bundle{
		KeyPositioningFunding:  f.FundingRate,
		KeyPositioningOIChange: f.OIChangePct,
		FlagPositioningData:    flag,
	}
}

// ComputePositioning extracts positioning features from a derivatives
// snapshot. A nil snapshot, or one whose optional fields are all nil,
// collapses to neutral defaults with HasData false.
func ComputePositioning(derivatives *data.DerivativesMetrics) PositioningFeatures {
	if derivatives == nil {
		return PositioningFeatures{}
	}
	if derivatives.FundingRate == nil && derivatives.OIChangePct == nil {
		return PositioningFeatures{}
	}
	f := PositioningFeatures{HasData: true}
	if derivatives.FundingRate != nil {
		f.FundingRate = *derivatives.FundingRate
	}
	if derivatives.OIChangePct != nil {
		f.OIChangePct = *derivatives.OIChangePct
	}
	return f
}
