package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/erp/pricing/internal/application/validate"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseComparisonService ranks supplier offers for a product
type PurchaseComparisonService struct {
	lists       pricelist.Reader
	entries     pricelist.EntryReader
	assignments pricelist.AssignmentReader
	parties     partner.Reader
	clock       shared.Clock
	logger      *zap.Logger
}

// NewPurchaseComparisonService creates a new PurchaseComparisonService
func NewPurchaseComparisonService(
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	assignments pricelist.AssignmentReader,
	parties partner.Reader,
	clock shared.Clock,
	logger *zap.Logger,
) *PurchaseComparisonService {
	return &PurchaseComparisonService{
		lists:       lists,
		entries:     entries,
		assignments: assignments,
		parties:     parties,
		clock:       clock,
		logger:      logger,
	}
}

// Compare returns one offer per (purchase list × associated supplier), cheapest
// effective price first. Lists without any associated supplier are excluded.
func (s *PurchaseComparisonService) Compare(ctx context.Context, req ComparisonRequest) ([]SupplierOffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	at := s.clock.Now()
	if req.EvaluationDate != nil {
		at = *req.EvaluationDate
	}
	filter := pricelist.NewValidityFilter(at, req.Quantity)

	entries, err := s.entries.FindByProduct(ctx, req.ProductID)
	if err != nil {
		s.logger.Error("Failed to load price list entries", zap.String("product_id", req.ProductID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list entries: %w", err)
	}
	listIDs := uniqueListIDs(entries)
	if len(listIDs) == 0 {
		return []SupplierOffer{}, nil
	}

	lists, err := s.lists.FindByIDs(ctx, listIDs)
	if err != nil {
		s.logger.Error("Failed to load price lists", zap.Error(err))
		return nil, fmt.Errorf("load price lists: %w", err)
	}
	purchase := make(map[uuid.UUID]*pricelist.PriceList, len(lists))
	for i := range lists {
		if lists[i].Direction == pricelist.DirectionInput {
			purchase[lists[i].ID] = &lists[i]
		}
	}
	listings := filter.Select(purchase, entries)
	if len(listings) == 0 {
		return []SupplierOffer{}, nil
	}

	eligible := make([]uuid.UUID, len(listings))
	for i, l := range listings {
		eligible[i] = l.List.ID
	}
	assignments, err := s.assignments.FindByListIDs(ctx, eligible)
	if err != nil {
		s.logger.Error("Failed to load business party associations", zap.Error(err))
		return nil, fmt.Errorf("load business party associations: %w", err)
	}
	byList := make(map[uuid.UUID][]*pricelist.PartyAssignment)
	supplierIDs := make([]uuid.UUID, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		if !filter.AcceptsAssignment(a) {
			continue
		}
		byList[a.PriceListID] = append(byList[a.PriceListID], a)
		supplierIDs = append(supplierIDs, a.BusinessPartyID)
	}

	names, err := s.supplierNames(ctx, supplierIDs)
	if err != nil {
		return nil, err
	}

	offers := make([]SupplierOffer, 0)
	for _, l := range listings {
		for _, a := range byList[l.List.ID] {
			offers = append(offers, newOffer(l, a, names[a.BusinessPartyID]))
		}
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].EffectivePrice.LessThan(offers[j].EffectivePrice)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *PurchaseComparisonService) supplierNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	parties, err := s.parties.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load suppliers", zap.Error(err))
		return nil, fmt.Errorf("load suppliers: %w", err)
	}
	for _, p := range parties {
		names[p.ID] = p.Name
	}
	return names, nil
}

func newOffer(l pricelist.Listing, a *pricelist.PartyAssignment, supplierName string) SupplierOffer {
	entry := l.Entry
	money := entry.Money()
	effective := money
	if a.HasDiscount() {
		effective = money.ApplyDiscount(a.Discount())
	}
	return SupplierOffer{
		PriceListID:          l.List.ID,
		PriceListName:        l.List.Name,
		SupplierID:           a.BusinessPartyID,
		SupplierName:         supplierName,
		BasePrice:            entry.Price,
		EffectivePrice:       effective.Amount(),
		DiscountPercentage:   a.Discount(),
		Currency:             money.Currency(),
		LeadTimeDays:         entry.LeadTimeDays,
		MinimumOrderQuantity: entry.MinimumOrderQuantity,
		SupplierProductCode:  entry.SupplierProductCode,
		IsPrimary:            a.IsPrimary,
	}
}
