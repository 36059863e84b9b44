package pricelist

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyAssignment gives one business party a specific view of a price list
type PartyAssignment struct {
	ID                       uuid.UUID
	PriceListID              uuid.UUID
	BusinessPartyID          uuid.UUID
	PriorityOverride         *int
	GlobalDiscountPercentage *decimal.Decimal
	// ValidFrom and ValidTo narrow the parent list's window for this party
	ValidFrom *time.Time
	ValidTo   *time.Time
	IsPrimary bool
	IsDeleted bool
	CreatedAt time.Time
}

// NewPartyAssignment associates a party with a list
func NewPartyAssignment(priceListID, businessPartyID uuid.UUID) *PartyAssignment {
	return &PartyAssignment{
		ID:              uuid.New(),
		PriceListID:     priceListID,
		BusinessPartyID: businessPartyID,
		CreatedAt:       time.Now(),
	}
}

// HasDiscount reports whether a non-zero global discount is configured
func (a *PartyAssignment) HasDiscount() bool {
	return a.GlobalDiscountPercentage != nil && !a.GlobalDiscountPercentage.IsZero()
}

// Discount returns the global discount percentage, or zero
func (a *PartyAssignment) Discount() decimal.Decimal {
	if a.GlobalDiscountPercentage == nil {
		return decimal.Zero
	}
	return *a.GlobalDiscountPercentage
}

// CoversDate reports whether the party sub-window contains t
func (a *PartyAssignment) CoversDate(t time.Time) bool {
	return windowCovers(a.ValidFrom, a.ValidTo, t)
}

// EffectivePriority returns the override when set, else the list priority
func (a *PartyAssignment) EffectivePriority(list *PriceList) int {
	if a.PriorityOverride != nil {
		return *a.PriorityOverride
	}
	return list.Priority
}

// ValidateWithin checks that the party sub-window lies within or equals the list window.
// An open end on the assignment inherits the list's bound.
func (a *PartyAssignment) ValidateWithin(list *PriceList) error {
	if list.ValidFrom != nil && a.ValidFrom != nil && a.ValidFrom.Before(*list.ValidFrom) {
		return errAssignmentOutsideWindow
	}
	if list.ValidTo != nil && a.ValidTo != nil && a.ValidTo.After(*list.ValidTo) {
		return errAssignmentOutsideWindow
	}
	if a.ValidFrom != nil && a.ValidTo != nil && a.ValidTo.Before(*a.ValidFrom) {
		return shared.NewInvalidInputError("INVALID_VALIDITY", "validTo cannot be before validFrom")
	}
	return nil
}

// CloneInto copies the assignment verbatim onto another list
func (a *PartyAssignment) CloneInto(priceListID uuid.UUID, now time.Time) *PartyAssignment {
	clone := *a
	clone.ID = uuid.New()
	clone.PriceListID = priceListID
	clone.IsDeleted = false
	clone.CreatedAt = now
	return &clone
}

var errAssignmentOutsideWindow = shared.NewInvalidInputError(
	"ASSIGNMENT_OUTSIDE_LIST_WINDOW",
	"Business party validity must lie within the price list validity",
)
