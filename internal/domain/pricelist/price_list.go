package pricelist

import (
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListType distinguishes sales lists from purchase lists
type ListType string

const (
	TypeSales    ListType = "sales"
	TypePurchase ListType = "purchase"
)

// IsValid reports whether t is a declared list type
func (t ListType) IsValid() bool {
	return t == TypeSales || t == TypePurchase
}

// Direction is the transaction side a list prices
type Direction string

const (
	DirectionOutput Direction = "output" // sales
	DirectionInput  Direction = "input"  // purchase
)

// IsValid reports whether d is a declared direction
func (d Direction) IsValid() bool {
	return d == DirectionOutput || d == DirectionInput
}

// DirectionForStockIncrease maps a document's stock-increase flag to a direction
func DirectionForStockIncrease(isStockIncrease bool) Direction {
	if isStockIncrease {
		return DirectionInput
	}
	return DirectionOutput
}

// Status represents the lifecycle status of a price list
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

// IsValid reports whether s is a declared status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive, StatusExpired:
		return true
	}
	return false
}

// GenerationMetadata records how a machine-generated list was derived
type GenerationMetadata struct {
	Strategy         GenerationStrategy
	SupplierID       uuid.UUID
	SourceFrom       time.Time
	SourceTo         time.Time
	DocumentCount    int
	MarkupPercentage decimal.Decimal
	Rounding         RoundingPolicy
	GeneratedAt      time.Time
}

// PriceList is the aggregate root for a set of product prices
type PriceList struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Description string
	Type        ListType
	Direction   Direction
	Status      Status
	// Priority orders lists; a lower number means higher precedence
	Priority   int
	IsDefault  bool
	Currency   valueobject.Currency
	ValidFrom  *time.Time
	ValidTo    *time.Time
	EventID    *uuid.UUID
	Generation *GenerationMetadata
	IsDeleted  bool
	CreatedBy  string
	ModifiedBy string
}

// NewPriceList creates a new draft price list
func NewPriceList(code, name string, listType ListType, direction Direction, priority int) (*PriceList, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewInvalidInputError("INVALID_CODE", "Price list code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewInvalidInputError("INVALID_NAME", "Price list name cannot be empty")
	}
	if !listType.IsValid() {
		return nil, shared.NewInvalidInputError("INVALID_TYPE", "Price list type must be sales or purchase")
	}
	if !direction.IsValid() {
		return nil, shared.NewInvalidInputError("INVALID_DIRECTION", "Price list direction must be output or input")
	}
	if priority < 0 {
		return nil, shared.NewInvalidInputError("INVALID_PRIORITY", "Priority cannot be negative")
	}

	return &PriceList{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Type:              listType,
		Direction:         direction,
		Status:            StatusDraft,
		Priority:          priority,
		Currency:          valueobject.DefaultCurrency,
	}, nil
}

// SetValidity sets the validity window; either end may be open
func (l *PriceList) SetValidity(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewInvalidInputError("INVALID_VALIDITY", "validTo cannot be before validFrom")
	}
	l.ValidFrom = from
	l.ValidTo = to
	return nil
}

// IsActive reports whether the list is active and not deleted
func (l *PriceList) IsActive() bool {
	return l.Status == StatusActive && !l.IsDeleted
}

// CoversDate reports whether the validity window contains t (inclusive, open ends allowed)
func (l *PriceList) CoversDate(t time.Time) bool {
	return windowCovers(l.ValidFrom, l.ValidTo, t)
}

// IsExpiredAt reports whether the list's window closed before t
func (l *PriceList) IsExpiredAt(t time.Time) bool {
	return l.ValidTo != nil && l.ValidTo.Before(t)
}

// IsGenerated reports whether the list was derived from historical data
func (l *PriceList) IsGenerated() bool {
	return l.Generation != nil
}

func windowCovers(from, to *time.Time, t time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
