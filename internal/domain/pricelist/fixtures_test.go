package pricelist

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return testNow.Add(time.Duration(n) * 24 * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestList(name string, priority int, createdAt time.Time) *PriceList {
	return &PriceList{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt},
			Version:    1,
		},
		Code:      name,
		Name:      name,
		Type:      TypeSales,
		Direction: DirectionOutput,
		Status:    StatusActive,
		Priority:  priority,
		Currency:  "EUR",
	}
}

func newTestEntry(list *PriceList, productID uuid.UUID, price string) Entry {
	return Entry{
		ID:          uuid.New(),
		PriceListID: list.ID,
		ProductID:   productID,
		Price:       decimal.RequireFromString(price),
		Currency:    "EUR",
		MinQuantity: decimal.NewFromInt(1),
		MaxQuantity: decimal.Zero,
		Version:     1,
	}
}
