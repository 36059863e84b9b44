package pricelist

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceOperation_Apply(t *testing.T) {
	tests := []struct {
		name     string
		op       PriceOperation
		current  string
		value    string
		expected string
	}{
		{"increase by percentage", OpIncreaseByPercentage, "100", "10", "110"},
		{"decrease by percentage", OpDecreaseByPercentage, "100", "25", "75"},
		{"increase by amount", OpIncreaseByAmount, "9.50", "0.50", "10"},
		{"decrease by amount", OpDecreaseByAmount, "9.50", "10", "-0.5"},
		{"set fixed price", OpSetFixedPrice, "9.50", "4.20", "4.2"},
		{"multiply by", OpMultiplyBy, "4", "1.5", "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Apply(decimal.RequireFromString(tt.current), decimal.RequireFromString(tt.value))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestPriceOperation_Unknown(t *testing.T) {
	_, err := PriceOperation("divide_by").Apply(decimal.NewFromInt(1), decimal.NewFromInt(2))
	assert.True(t, errors.Is(err, ErrInvalidOperation))
}

func TestTransform_Apply(t *testing.T) {
	tr := Transform{Operation: OpIncreaseByPercentage, Value: decimal.NewFromInt(3), Rounding: RoundingToNearest5Cents}
	require.NoError(t, tr.Validate())

	got, err := tr.Apply(decimal.RequireFromString("12.00"))
	require.NoError(t, err)
	// 12 × 1.03 = 12.36 -> 12.35
	assert.True(t, decimal.RequireFromString("12.35").Equal(got), "got %s", got)
}

func TestTransform_Validate(t *testing.T) {
	assert.Error(t, Transform{Operation: "nope"}.Validate())
	assert.Error(t, Transform{Operation: OpMultiplyBy, Rounding: "nope"}.Validate())
	assert.NoError(t, Transform{Operation: OpMultiplyBy}.Validate())
}

func TestMarkup(t *testing.T) {
	got, err := Markup(decimal.NewFromInt(20), RoundingToNearest99Cents).Apply(decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.99").Equal(got), "got %s", got)
}
