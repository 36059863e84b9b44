package pricelist

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one product price inside a price list
type Entry struct {
	ID          uuid.UUID
	PriceListID uuid.UUID
	ProductID   uuid.UUID
	Price       decimal.Decimal
	Currency    valueobject.Currency
	// UnitCode is the unit the price is quoted in; empty means the product base unit
	UnitCode string
	// MinQuantity and MaxQuantity bound the eligible quantity; MaxQuantity 0 is unbounded
	MinQuantity    decimal.Decimal
	MaxQuantity    decimal.Decimal
	IsEditable     bool
	IsDiscountable bool
	Score          int

	// Purchase-list fields
	LeadTimeDays         *int
	MinimumOrderQuantity *decimal.Decimal
	SupplierProductCode  string

	// Version is the row version guarding compare-and-swap writes
	Version    int
	IsDeleted  bool
	ModifiedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewEntry creates an entry valid from quantity 1 with no upper bound
func NewEntry(priceListID, productID uuid.UUID, price decimal.Decimal, currency valueobject.Currency) (*Entry, error) {
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}
	now := time.Now()
	return &Entry{
		ID:             uuid.New(),
		PriceListID:    priceListID,
		ProductID:      productID,
		Price:          price,
		Currency:       currency.OrDefault(),
		MinQuantity:    decimal.NewFromInt(1),
		MaxQuantity:    decimal.Zero,
		IsEditable:     true,
		IsDiscountable: true,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ErrNegativePrice is returned when a price would be stored below zero
var ErrNegativePrice = shared.NewInvalidInputError("NEGATIVE_PRICE", "Price cannot be negative")

// CoversQuantity implements minQuantity ≤ q AND (maxQuantity == 0 OR maxQuantity ≥ q)
func (e *Entry) CoversQuantity(q decimal.Decimal) bool {
	if e.MinQuantity.GreaterThan(q) {
		return false
	}
	return e.MaxQuantity.IsZero() || e.MaxQuantity.GreaterThanOrEqual(q)
}

// Money returns the entry price as Money
func (e *Entry) Money() valueobject.Money {
	return valueobject.MustNewMoney(e.Price, e.Currency.OrDefault())
}

// CloneInto copies the entry for another list with a new identity and price
func (e *Entry) CloneInto(priceListID uuid.UUID, price decimal.Decimal, actor string, now time.Time) *Entry {
	clone := *e
	clone.ID = uuid.New()
	clone.PriceListID = priceListID
	clone.Price = price
	clone.Version = 1
	clone.IsDeleted = false
	clone.ModifiedBy = actor
	clone.CreatedAt = now
	clone.UpdatedAt = now
	return &clone
}

// PriceUpdate is a compare-and-swap write instruction for one entry price.
// The write applies only if the stored row still has ExpectedVersion.
type PriceUpdate struct {
	EntryID         uuid.UUID
	ExpectedVersion int
	NewPrice        decimal.Decimal
	ModifiedBy      string
	ModifiedAt      time.Time
}
