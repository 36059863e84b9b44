package pricelist

import (
	"fmt"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceOperation is an arithmetic change applied to a current price
type PriceOperation string

const (
	OpIncreaseByPercentage PriceOperation = "increase_by_percentage"
	OpDecreaseByPercentage PriceOperation = "decrease_by_percentage"
	OpIncreaseByAmount     PriceOperation = "increase_by_amount"
	OpDecreaseByAmount     PriceOperation = "decrease_by_amount"
	OpSetFixedPrice        PriceOperation = "set_fixed_price"
	OpMultiplyBy           PriceOperation = "multiply_by"
)

var hundred = decimal.NewFromInt(100)

var operationTable = map[PriceOperation]func(current, value decimal.Decimal) decimal.Decimal{
	OpIncreaseByPercentage: func(c, v decimal.Decimal) decimal.Decimal {
		return c.Mul(decimal.NewFromInt(1).Add(v.Div(hundred)))
	},
	OpDecreaseByPercentage: func(c, v decimal.Decimal) decimal.Decimal {
		return c.Mul(decimal.NewFromInt(1).Sub(v.Div(hundred)))
	},
	OpIncreaseByAmount: func(c, v decimal.Decimal) decimal.Decimal { return c.Add(v) },
	OpDecreaseByAmount: func(c, v decimal.Decimal) decimal.Decimal { return c.Sub(v) },
	OpSetFixedPrice:    func(_, v decimal.Decimal) decimal.Decimal { return v },
	OpMultiplyBy:       func(c, v decimal.Decimal) decimal.Decimal { return c.Mul(v) },
}

// Errors for invalid transforms
var (
	ErrInvalidOperation      = shared.NewInvalidInputError("INVALID_OPERATION", "Unknown price operation")
	ErrInvalidRoundingPolicy = shared.NewInvalidInputError("INVALID_ROUNDING_POLICY", "Unknown rounding policy")
)

// IsValid reports whether o is a declared operation
func (o PriceOperation) IsValid() bool {
	_, ok := operationTable[o]
	return ok
}

// Apply computes the new price without rounding
func (o PriceOperation) Apply(current, value decimal.Decimal) (decimal.Decimal, error) {
	fn, ok := operationTable[o]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidOperation, o)
	}
	return fn(current, value), nil
}

// Transform is an operation followed by a rounding policy
type Transform struct {
	Operation PriceOperation
	Value     decimal.Decimal
	Rounding  RoundingPolicy
}

// Markup returns the transform used for generation and duplication markups
func Markup(percentage decimal.Decimal, rounding RoundingPolicy) Transform {
	return Transform{Operation: OpIncreaseByPercentage, Value: percentage, Rounding: rounding}
}

// Validate checks that both the operation and the rounding policy are known
func (t Transform) Validate() error {
	if !t.Operation.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidOperation, t.Operation)
	}
	if !t.Rounding.OrNone().IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRoundingPolicy, t.Rounding)
	}
	return nil
}

// Apply returns the rounded result; callers decide how to treat a negative result
func (t Transform) Apply(current decimal.Decimal) (decimal.Decimal, error) {
	price, err := t.Operation.Apply(current, t.Value)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Rounding.Apply(price)
}
