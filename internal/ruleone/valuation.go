package ruleone

import "math"

// Rule One valuation policy constants. The ten-year horizon is fixed by
// the methodology, not derived from the data.
const (
	ProjectionYears = 10

	DefaultMinimumReturn  = 0.15
	DefaultMarginOfSafety = 0.50
	DefaultPECap          = 40.0
)

// Policy holds the tunable valuation constants. Zero values are replaced
// by the Rule One defaults.
type Policy struct {
	// PECap bounds the trailing PE used as the default multiple.
	PECap float64
	// MinimumReturn is the annual return used to discount the projected
	// future price back to today (0.15 = 15%).
	MinimumReturn float64
	// MarginOfSafetyDiscount is the fraction of sticker price that forms
	// the conservative buy threshold (0.5 = half the sticker).
	MarginOfSafetyDiscount float64
}

// DefaultPolicy returns the standard Rule One valuation policy.
func DefaultPolicy() Policy {
	return Policy{
		PECap:                  DefaultPECap,
		MinimumReturn:          DefaultMinimumReturn,
		MarginOfSafetyDiscount: DefaultMarginOfSafety,
	}
}

func (p Policy) withDefaults() Policy {
	if p.PECap <= 0 {
		p.PECap = DefaultPECap
	}
	if p.MinimumReturn <= 0 {
		p.MinimumReturn = DefaultMinimumReturn
	}
	if p.MarginOfSafetyDiscount <= 0 {
		p.MarginOfSafetyDiscount = DefaultMarginOfSafety
	}
	return p
}

// StickerPrice projects EPS forward ten years at the growth rate (in
// percent), applies an implied PE of twice the growth rate bounded by
// the default PE, and discounts the resulting future price back at the
// minimum acceptable return. trailingPE may be nil, in which case the
// policy cap alone bounds the multiple. Returns nil when currentEPS is
// non-positive.
func StickerPrice(currentEPS, growthRate float64, trailingPE *float64, pol Policy) *float64 {
	if currentEPS <= 0 {
		return nil
	}
	pol = pol.withDefaults()

	futureEPS := currentEPS * math.Pow(1+growthRate/100, ProjectionYears)

	defaultPE := pol.PECap
	if trailingPE != nil && *trailingPE > 0 && *trailingPE < defaultPE {
		defaultPE = *trailingPE
	}
	impliedPE := math.Max(growthRate, 0) * 2
	if defaultPE < impliedPE {
		impliedPE = defaultPE
	}

	futurePrice := futureEPS * impliedPE
	sticker := futurePrice / math.Pow(1+pol.MinimumReturn, ProjectionYears)
	return &sticker
}
