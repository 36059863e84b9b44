package pricelist

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidityFilter selects entries that are valid at an instant for a quantity
type ValidityFilter struct {
	At       time.Time
	Quantity decimal.Decimal
}

// NewValidityFilter builds a filter; a non-positive quantity defaults to 1
func NewValidityFilter(at time.Time, quantity decimal.Decimal) ValidityFilter {
	if !quantity.IsPositive() {
		quantity = decimal.NewFromInt(1)
	}
	return ValidityFilter{At: at, Quantity: quantity}
}

// AcceptsList reports whether the list is active and its window covers the instant
func (f ValidityFilter) AcceptsList(l *PriceList) bool {
	return l != nil && l.IsActive() && l.CoversDate(f.At)
}

// AcceptsEntry reports whether the entry is live and quantity-eligible
func (f ValidityFilter) AcceptsEntry(e *Entry) bool {
	return e != nil && !e.IsDeleted && e.CoversQuantity(f.Quantity)
}

// AcceptsAssignment reports whether the party association is live at the instant
func (f ValidityFilter) AcceptsAssignment(a *PartyAssignment) bool {
	return a != nil && !a.IsDeleted && a.CoversDate(f.At)
}

// Listing is a list together with the entry it contributes for one product
type Listing struct {
	List  *PriceList
	Entry *Entry
}

// Select pairs each accepted list with its best eligible entry.
// When quantity breaks overlap inside one list, the entry with the highest
// MinQuantity wins. Listings are returned in the order lists first appear in entries.
func (f ValidityFilter) Select(lists map[uuid.UUID]*PriceList, entries []Entry) []Listing {
	best := make(map[uuid.UUID]*Entry)
	order := make([]uuid.UUID, 0)
	for i := range entries {
		e := &entries[i]
		if !f.AcceptsEntry(e) || !f.AcceptsList(lists[e.PriceListID]) {
			continue
		}
		current, seen := best[e.PriceListID]
		if !seen {
			order = append(order, e.PriceListID)
			best[e.PriceListID] = e
			continue
		}
		if e.MinQuantity.GreaterThan(current.MinQuantity) {
			best[e.PriceListID] = e
		}
	}

	listings := make([]Listing, 0, len(order))
	for _, id := range order {
		listings = append(listings, Listing{List: lists[id], Entry: best[id]})
	}
	return listings
}
