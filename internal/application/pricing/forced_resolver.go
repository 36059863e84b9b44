package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors returned by forced list resolution
var (
	ErrForcedPriceListRequired = shared.NewInvalidInputError("FORCED_PRICE_LIST_REQUIRED", "ForcedPriceListId is required.")
	ErrProductNotInForcedList  = shared.NewNotFoundError("PRODUCT_NOT_IN_FORCED_LIST", "product not found in forced price list.")
	ErrPriceListNotFound       = shared.NewNotFoundError("PRICE_LIST_NOT_FOUND", "Price list not found")
	ErrBusinessPartyNotFound   = shared.NewNotFoundError("BUSINESS_PARTY_NOT_FOUND", "Business party not found")
)

// ForcedListResolver resolves a price strictly from one designated list
type ForcedListResolver struct {
	lists       pricelist.Reader
	entries     pricelist.EntryReader
	assignments pricelist.AssignmentReader
	parties     partner.Reader
	currency    valueobject.Currency
	logger      *zap.Logger
}

// NewForcedListResolver creates a new ForcedListResolver
func NewForcedListResolver(
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	assignments pricelist.AssignmentReader,
	parties partner.Reader,
	logger *zap.Logger,
) *ForcedListResolver {
	return &ForcedListResolver{
		lists:       lists,
		entries:     entries,
		assignments: assignments,
		parties:     parties,
		currency:    valueobject.DefaultCurrency,
		logger:      logger,
	}
}

// SetCurrency sets the currency reported for entries and lists without one
func (r *ForcedListResolver) SetCurrency(currency valueobject.Currency) {
	r.currency = currency.OrDefault()
}

// Resolve looks the product up in the forced list. party may be nil when it was not
// loaded yet; it is then loaded only if the request carries no forced list id.
func (r *ForcedListResolver) Resolve(
	ctx context.Context,
	req PriceRequest,
	party *partner.BusinessParty,
	filter pricelist.ValidityFilter,
) (PriceResolution, error) {
	var path trace

	listID, err := r.forcedListID(ctx, req, party, &path)
	if err != nil {
		return PriceResolution{}, err
	}

	list, err := r.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return PriceResolution{}, ErrPriceListNotFound
		}
		r.logger.Error("Failed to load forced price list", zap.String("price_list_id", listID.String()), zap.Error(err))
		return PriceResolution{}, fmt.Errorf("load forced price list: %w", err)
	}

	entries, err := r.entries.FindByListAndProduct(ctx, listID, req.ProductID)
	if err != nil {
		r.logger.Error("Failed to load forced price list entries", zap.String("price_list_id", listID.String()), zap.Error(err))
		return PriceResolution{}, fmt.Errorf("load forced price list entries: %w", err)
	}

	listings := filter.Select(map[uuid.UUID]*pricelist.PriceList{list.ID: list}, entries)
	if len(listings) == 0 {
		return PriceResolution{}, ErrProductNotInForcedList
	}
	entry := listings[0].Entry
	path.addf("found entry in forced list %s at %s for quantity %s", list.Name, entry.Price, filter.Quantity)

	discount, err := r.partyDiscount(ctx, req.BusinessPartyID, list.ID, filter)
	if err != nil {
		return PriceResolution{}, err
	}

	result := newListResolution(req.ProductID, pricelist.ModeForcedPriceList, list, entry, list.Priority, r.currency)
	result = applyDiscount(result, discount, &path)
	result.SearchPath = path.steps()
	return result, nil
}

func (r *ForcedListResolver) forcedListID(
	ctx context.Context,
	req PriceRequest,
	party *partner.BusinessParty,
	path *trace,
) (uuid.UUID, error) {
	if req.ForcedPriceListID != nil {
		path.addf("forced price list %s taken from request", *req.ForcedPriceListID)
		return *req.ForcedPriceListID, nil
	}
	if req.BusinessPartyID == nil {
		return uuid.Nil, ErrForcedPriceListRequired
	}
	if party == nil {
		loaded, err := r.parties.FindByID(ctx, *req.BusinessPartyID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return uuid.Nil, ErrBusinessPartyNotFound
			}
			return uuid.Nil, fmt.Errorf("load business party: %w", err)
		}
		party = loaded
	}
	if party.ForcedPriceListID == nil {
		return uuid.Nil, ErrForcedPriceListRequired
	}
	path.addf("forced price list %s taken from business party %s", *party.ForcedPriceListID, party.Code)
	return *party.ForcedPriceListID, nil
}

// partyDiscount returns the party's live association with the list, if any
func (r *ForcedListResolver) partyDiscount(
	ctx context.Context,
	partyID *uuid.UUID,
	listID uuid.UUID,
	filter pricelist.ValidityFilter,
) (*pricelist.PartyAssignment, error) {
	if partyID == nil {
		return nil, nil
	}
	assignment, err := r.assignments.FindByListAndParty(ctx, listID, *partyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to load business party association", zap.String("price_list_id", listID.String()), zap.Error(err))
		return nil, fmt.Errorf("load business party association: %w", err)
	}
	if !filter.AcceptsAssignment(assignment) {
		return nil, nil
	}
	return assignment, nil
}

// newListResolution builds an undiscounted resolution from a list entry.
// fallback is used when neither the entry nor the list carries a currency.
func newListResolution(
	productID uuid.UUID,
	mode pricelist.ApplicationMode,
	list *pricelist.PriceList,
	entry *pricelist.Entry,
	priority int,
	fallback valueobject.Currency,
) PriceResolution {
	listID := list.ID
	currency := entry.Currency
	if currency == "" {
		currency = list.Currency
	}
	if currency == "" {
		currency = fallback
	}
	return PriceResolution{
		ProductID:          productID,
		Mode:               mode,
		Price:              entry.Price,
		OriginalPrice:      entry.Price,
		Currency:           currency.OrDefault(),
		PriceListID:        &listID,
		PriceListName:      list.Name,
		Priority:           &priority,
		DiscountPercentage: decimal0,
		UnitCode:           entry.UnitCode,
		ConversionRate:     decimal1,
	}
}

// applyDiscount overlays price × (1 − pct/100) when the association carries a discount
func applyDiscount(r PriceResolution, assignment *pricelist.PartyAssignment, path *trace) PriceResolution {
	if assignment == nil || !assignment.HasDiscount() {
		return r
	}
	pct := assignment.Discount()
	discounted := r.moneyOf(r.OriginalPrice).ApplyDiscount(pct).Amount()
	path.addf("applied business party global discount of %s%%: %s -> %s", pct, r.OriginalPrice, discounted)
	r.Price = discounted
	r.DiscountPercentage = pct
	return r
}
