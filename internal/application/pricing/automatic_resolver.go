package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProductNotFound is returned when the requested product does not exist
var ErrProductNotFound = shared.NewNotFoundError("PRODUCT_NOT_FOUND", "Product not found")

// AutomaticResolver ranks every applicable list for a product and picks the winner
type AutomaticResolver struct {
	products    catalog.ProductReader
	lists       pricelist.Reader
	entries     pricelist.EntryReader
	assignments pricelist.AssignmentReader
	currency    valueobject.Currency
	logger      *zap.Logger
}

// NewAutomaticResolver creates a new AutomaticResolver
func NewAutomaticResolver(
	products catalog.ProductReader,
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	assignments pricelist.AssignmentReader,
	logger *zap.Logger,
) *AutomaticResolver {
	return &AutomaticResolver{
		products:    products,
		lists:       lists,
		entries:     entries,
		assignments: assignments,
		currency:    valueobject.DefaultCurrency,
		logger:      logger,
	}
}

// SetCurrency sets the currency of fallback prices and of entries without one
func (r *AutomaticResolver) SetCurrency(currency valueobject.Currency) {
	r.currency = currency.OrDefault()
}

// Resolve never fails for lack of a price: without a winning list it falls back
// to the product default price, then to zero.
func (r *AutomaticResolver) Resolve(
	ctx context.Context,
	req PriceRequest,
	filter pricelist.ValidityFilter,
) (PriceResolution, error) {
	var path trace
	path.addf("automatic resolution for product %s at %s, quantity %s",
		req.ProductID, filter.At.Format(time.RFC3339), filter.Quantity)

	product, err := loadProduct(ctx, r.products, req.ProductID, r.logger)
	if err != nil {
		return PriceResolution{}, err
	}

	candidates, err := r.candidates(ctx, req, filter, &path)
	if err != nil {
		return PriceResolution{}, err
	}
	ranked := pricelist.RankCandidates(candidates)

	if len(ranked) == 0 {
		result := fallbackResolution(product, pricelist.ModeAutomatic, r.currency, &path)
		result.SearchPath = path.steps()
		return result, nil
	}

	winner := ranked[0]
	kind := "generic"
	if winner.PartyAssigned() {
		kind = "business party assigned"
	}
	path.addf("selected price list %s (%s, priority %d) at %s",
		winner.List.Name, kind, winner.EffectivePriority(), winner.Entry.Price)

	result := newListResolution(req.ProductID, pricelist.ModeAutomatic, winner.List, winner.Entry, winner.EffectivePriority(), r.currency)
	result = applyDiscount(result, winner.Assignment, &path)
	result.Candidates = summarize(ranked)
	result.SearchPath = path.steps()
	return result, nil
}

func (r *AutomaticResolver) candidates(
	ctx context.Context,
	req PriceRequest,
	filter pricelist.ValidityFilter,
	path *trace,
) ([]pricelist.Candidate, error) {
	entries, err := r.entries.FindByProduct(ctx, req.ProductID)
	if err != nil {
		r.logger.Error("Failed to load price list entries", zap.String("product_id", req.ProductID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list entries: %w", err)
	}

	listIDs := uniqueListIDs(entries)
	path.addf("found %d entries across %d price lists", len(entries), len(listIDs))
	if len(listIDs) == 0 {
		return nil, nil
	}

	lists, err := r.lists.FindByIDs(ctx, listIDs)
	if err != nil {
		r.logger.Error("Failed to load price lists", zap.Int("count", len(listIDs)), zap.Error(err))
		return nil, fmt.Errorf("load price lists: %w", err)
	}
	byID := make(map[uuid.UUID]*pricelist.PriceList, len(lists))
	for i := range lists {
		l := &lists[i]
		if req.EventID != nil && (l.EventID == nil || *l.EventID != *req.EventID) {
			continue
		}
		byID[l.ID] = l
	}
	if req.EventID != nil {
		path.addf("%d price lists linked to event %s", len(byID), *req.EventID)
	}

	listings := filter.Select(byID, entries)
	path.addf("%d price lists active, valid and quantity-eligible", len(listings))
	if len(listings) == 0 {
		return nil, nil
	}

	eligible := make([]uuid.UUID, len(listings))
	for i, l := range listings {
		eligible[i] = l.List.ID
	}
	assignments, err := r.assignments.FindByListIDs(ctx, eligible)
	if err != nil {
		r.logger.Error("Failed to load business party associations", zap.Error(err))
		return nil, fmt.Errorf("load business party associations: %w", err)
	}

	candidates := pricelist.BuildCandidates(listings, assignments, req.BusinessPartyID, filter)
	if req.BusinessPartyID == nil {
		path.addf("no business party supplied: %d generic candidates, business party lists excluded", len(candidates))
	} else {
		assigned := 0
		for _, c := range candidates {
			if c.PartyAssigned() {
				assigned++
			}
		}
		path.addf("business party %s: %d assigned and %d generic candidates",
			*req.BusinessPartyID, assigned, len(candidates)-assigned)
	}
	return candidates, nil
}

func loadProduct(ctx context.Context, products catalog.ProductReader, id uuid.UUID, logger *zap.Logger) (*catalog.Product, error) {
	product, err := products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to load product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

// fallbackResolution returns the product default price, or zero, in currency
func fallbackResolution(product *catalog.Product, mode pricelist.ApplicationMode, currency valueobject.Currency, path *trace) PriceResolution {
	price, ok := product.FallbackPrice()
	if ok {
		path.addf("no applicable price list; falling back to product default price %s", price)
	} else {
		path.addf("no applicable price list and no product default price; price is 0")
	}
	return PriceResolution{
		ProductID:          product.ID,
		Mode:               mode,
		Price:              price,
		OriginalPrice:      price,
		Currency:           currency,
		DiscountPercentage: decimal0,
		UnitCode:           product.Unit,
		ConversionRate:     decimal1,
		IsFallback:         true,
	}
}

func summarize(ranked []pricelist.Candidate) []CandidateSummary {
	out := make([]CandidateSummary, len(ranked))
	for i, c := range ranked {
		out[i] = CandidateSummary{
			PriceListID:   c.List.ID,
			Name:          c.List.Name,
			Priority:      c.EffectivePriority(),
			Price:         c.Entry.Price,
			PartyAssigned: c.PartyAssigned(),
			IsDefault:     c.List.IsDefault,
		}
	}
	return out
}

func uniqueListIDs(entries []pricelist.Entry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.PriceListID]; ok {
			continue
		}
		seen[e.PriceListID] = struct{}{}
		ids = append(ids, e.PriceListID)
	}
	return ids
}
