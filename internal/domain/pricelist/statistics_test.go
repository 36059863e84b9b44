package pricelist

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func occ(price, qty string, day int) Occurrence {
	return Occurrence{
		DocumentID: uuid.New(),
		Price:      decimal.RequireFromString(price),
		Quantity:   decimal.RequireFromString(qty),
		Date:       time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerationStrategy_Compute(t *testing.T) {
	weighted := []Occurrence{occ("10", "2", 1), occ("12", "3", 2)}
	odd := []Occurrence{occ("30", "1", 3), occ("10", "1", 1), occ("20", "1", 2)}
	even := []Occurrence{occ("40", "1", 4), occ("10", "1", 1), occ("30", "1", 3), occ("20", "1", 2)}

	tests := []struct {
		name     string
		strategy GenerationStrategy
		input    []Occurrence
		expected string
	}{
		{"weighted average", StrategyWeightedAveragePrice, weighted, "11.2"},
		{"simple average", StrategySimpleAveragePrice, weighted, "11"},
		{"median odd", StrategyMedianPrice, odd, "20"},
		{"median even", StrategyMedianPrice, even, "25"},
		{"lowest", StrategyLowestPrice, even, "10"},
		{"highest", StrategyHighestPrice, even, "40"},
		{"last purchase", StrategyLastPurchasePrice, odd, "30"},
		{"weighted zero quantity falls back to mean", StrategyWeightedAveragePrice,
			[]Occurrence{occ("10", "0", 1), occ("20", "0", 2)}, "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.strategy.Compute(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestGenerationStrategy_ComputeEmpty(t *testing.T) {
	_, err := StrategyMedianPrice.Compute(nil)
	assert.True(t, errors.Is(err, shared.ErrNoDataAvailable))

	_, err = GenerationStrategy("mode_price").Compute([]Occurrence{occ("1", "1", 1)})
	assert.True(t, errors.Is(err, ErrInvalidStrategy))
}

func TestSummarize(t *testing.T) {
	doc := uuid.New()
	a := occ("10", "2", 1)
	a.DocumentID = doc
	b := occ("14", "3", 5)
	b.DocumentID = doc
	c := occ("12", "1", 3)

	s := Summarize([]Occurrence{a, b, c})

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.DocumentCount)
	assert.True(t, decimal.NewFromInt(10).Equal(s.MinPrice))
	assert.True(t, decimal.NewFromInt(14).Equal(s.MaxPrice))
	assert.True(t, decimal.NewFromInt(12).Equal(s.AveragePrice))
	assert.True(t, decimal.NewFromInt(6).Equal(s.TotalQuantity))
	assert.Equal(t, b.Date, s.LastPurchaseDate)
}
