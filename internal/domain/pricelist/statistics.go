package pricelist

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerationStrategy derives one candidate price from historical occurrences
type GenerationStrategy string

const (
	StrategyLastPurchasePrice    GenerationStrategy = "last_purchase_price"
	StrategyWeightedAveragePrice GenerationStrategy = "weighted_average_price"
	StrategySimpleAveragePrice   GenerationStrategy = "simple_average_price"
	StrategyLowestPrice          GenerationStrategy = "lowest_price"
	StrategyHighestPrice         GenerationStrategy = "highest_price"
	StrategyMedianPrice          GenerationStrategy = "median_price"
)

// ErrInvalidStrategy is returned for an unknown generation strategy
var ErrInvalidStrategy = shared.NewInvalidInputError("INVALID_STRATEGY", "Unknown generation strategy")

// Occurrence is one historical purchase of a product
type Occurrence struct {
	DocumentID uuid.UUID
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Date       time.Time
}

var strategyTable = map[GenerationStrategy]func([]Occurrence) decimal.Decimal{
	StrategyLastPurchasePrice:    lastPurchasePrice,
	StrategyWeightedAveragePrice: weightedAveragePrice,
	StrategySimpleAveragePrice:   simpleAveragePrice,
	StrategyLowestPrice:          lowestPrice,
	StrategyHighestPrice:         highestPrice,
	StrategyMedianPrice:          medianPrice,
}

// IsValid reports whether s is a declared strategy
func (s GenerationStrategy) IsValid() bool {
	_, ok := strategyTable[s]
	return ok
}

// Compute returns the candidate price for a non-empty occurrence set.
// An empty set yields shared.ErrNoDataAvailable.
func (s GenerationStrategy) Compute(occurrences []Occurrence) (decimal.Decimal, error) {
	fn, ok := strategyTable[s]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
	if len(occurrences) == 0 {
		return decimal.Zero, shared.ErrNoDataAvailable
	}
	return fn(occurrences), nil
}

// lastPurchasePrice takes the most recent occurrence; on equal dates the later one in input order wins.
func lastPurchasePrice(occ []Occurrence) decimal.Decimal {
	last := occ[0]
	for _, o := range occ[1:] {
		if !o.Date.Before(last.Date) {
			last = o
		}
	}
	return last.Price
}

// weightedAveragePrice is Σ(price×qty)/Σqty, falling back to the simple mean when Σqty is zero.
func weightedAveragePrice(occ []Occurrence) decimal.Decimal {
	total := decimal.Zero
	qty := decimal.Zero
	for _, o := range occ {
		total = total.Add(o.Price.Mul(o.Quantity))
		qty = qty.Add(o.Quantity)
	}
	if qty.IsZero() {
		return simpleAveragePrice(occ)
	}
	return total.Div(qty)
}

func simpleAveragePrice(occ []Occurrence) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range occ {
		sum = sum.Add(o.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(occ))))
}

func lowestPrice(occ []Occurrence) decimal.Decimal {
	low := occ[0].Price
	for _, o := range occ[1:] {
		if o.Price.LessThan(low) {
			low = o.Price
		}
	}
	return low
}

func highestPrice(occ []Occurrence) decimal.Decimal {
	high := occ[0].Price
	for _, o := range occ[1:] {
		if o.Price.GreaterThan(high) {
			high = o.Price
		}
	}
	return high
}

func medianPrice(occ []Occurrence) decimal.Decimal {
	prices := make([]decimal.Decimal, len(occ))
	for i, o := range occ {
		prices[i] = o.Price
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid]
	}
	return prices[mid-1].Add(prices[mid]).Div(decimal.NewFromInt(2))
}

// OccurrenceSummary describes the occurrences of one product in a window
type OccurrenceSummary struct {
	Count            int
	MinPrice         decimal.Decimal
	MaxPrice         decimal.Decimal
	AveragePrice     decimal.Decimal
	TotalQuantity    decimal.Decimal
	LastPurchaseDate time.Time
	DocumentCount    int
}

// Summarize computes the preview statistics for a non-empty occurrence set
func Summarize(occ []Occurrence) OccurrenceSummary {
	if len(occ) == 0 {
		return OccurrenceSummary{}
	}
	summary := OccurrenceSummary{
		Count:        len(occ),
		MinPrice:     lowestPrice(occ),
		MaxPrice:     highestPrice(occ),
		AveragePrice: simpleAveragePrice(occ),
	}
	docs := make(map[uuid.UUID]struct{}, len(occ))
	for _, o := range occ {
		summary.TotalQuantity = summary.TotalQuantity.Add(o.Quantity)
		if o.Date.After(summary.LastPurchaseDate) {
			summary.LastPurchaseDate = o.Date
		}
		docs[o.DocumentID] = struct{}{}
	}
	summary.DocumentCount = len(docs)
	return summary
}
