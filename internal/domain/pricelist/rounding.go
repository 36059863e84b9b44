package pricelist

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingPolicy is applied to every price produced by a bulk transform,
// a historical generation or a duplication with markup.
type RoundingPolicy string

const (
	RoundingNone             RoundingPolicy = "none"
	RoundingToNearest5Cents  RoundingPolicy = "to_nearest_5_cents"
	RoundingToNearest10Cents RoundingPolicy = "to_nearest_10_cents"
	RoundingToNearest50Cents RoundingPolicy = "to_nearest_50_cents"
	RoundingToNearestEuro    RoundingPolicy = "to_nearest_euro"
	RoundingToNearest99Cents RoundingPolicy = "to_nearest_99_cents"
)

var ninetyNineCents = decimal.RequireFromString("0.99")

// nearest rounds to the closest multiple of step: round(price × (1/step)) / (1/step),
// half away from zero.
func nearest(step decimal.Decimal) func(decimal.Decimal) decimal.Decimal {
	inverse := decimal.NewFromInt(1).Div(step)
	return func(price decimal.Decimal) decimal.Decimal {
		return price.Mul(inverse).Round(0).Div(inverse)
	}
}

// roundingTable is the single rounding implementation shared by every caller.
var roundingTable = map[RoundingPolicy]func(decimal.Decimal) decimal.Decimal{
	RoundingNone:             func(p decimal.Decimal) decimal.Decimal { return p },
	RoundingToNearest5Cents:  nearest(decimal.RequireFromString("0.05")),
	RoundingToNearest10Cents: nearest(decimal.RequireFromString("0.10")),
	RoundingToNearest50Cents: nearest(decimal.RequireFromString("0.50")),
	RoundingToNearestEuro:    nearest(decimal.NewFromInt(1)),
	RoundingToNearest99Cents: func(p decimal.Decimal) decimal.Decimal { return p.Floor().Add(ninetyNineCents) },
}

// IsValid reports whether p is a declared policy
func (p RoundingPolicy) IsValid() bool {
	_, ok := roundingTable[p]
	return ok
}

// OrNone returns p, or RoundingNone when p is empty
func (p RoundingPolicy) OrNone() RoundingPolicy {
	if p == "" {
		return RoundingNone
	}
	return p
}

// Apply rounds price according to the policy
func (p RoundingPolicy) Apply(price decimal.Decimal) (decimal.Decimal, error) {
	fn, ok := roundingTable[p.OrNone()]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRoundingPolicy, p)
	}
	return fn(price), nil
}
