package pricelist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/application/validate"
	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors returned by historical generation
var (
	ErrInvalidDateRange = shared.NewInvalidInputError("INVALID_DATE_RANGE", "fromDate must be before toDate and toDate cannot be in the future")
	ErrNoHistoricalData = shared.ErrNoDataAvailable.Derive("NO_HISTORICAL_DATA", "No purchase history matches the requested window and filters")
)

// HistoricalGenerationService derives purchase lists from supplier purchase history
type HistoricalGenerationService struct {
	mutation
	lists     pricelist.Reader
	entries   pricelist.EntryReader
	products  catalog.ProductReader
	parties   partner.Reader
	documents trade.DocumentReader
	currency  valueobject.Currency
}

// NewHistoricalGenerationService creates a new HistoricalGenerationService
func NewHistoricalGenerationService(
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	products catalog.ProductReader,
	parties partner.Reader,
	documents trade.DocumentReader,
	tx TxRunner,
	clock shared.Clock,
	logger *zap.Logger,
) *HistoricalGenerationService {
	return &HistoricalGenerationService{
		mutation:  newMutation(tx, clock, logger),
		lists:     lists,
		entries:   entries,
		products:  products,
		parties:   parties,
		documents: documents,
		currency:  valueobject.DefaultCurrency,
	}
}

// SetCacheInvalidator sets the cache dropped after each commit
func (s *HistoricalGenerationService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

// SetMetrics sets the metrics recorder
func (s *HistoricalGenerationService) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// SetCurrency sets the currency of generated lists
func (s *HistoricalGenerationService) SetCurrency(currency valueobject.Currency) {
	s.currency = currency.OrDefault()
}

// Preview computes the prices a generation would produce without writing
func (s *HistoricalGenerationService) Preview(ctx context.Context, window HistoricalWindow) (*GenerationPreview, error) {
	if err := validate.Struct(window); err != nil {
		return nil, err
	}
	preview, err := s.compute(ctx, window)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return preview, nil
}

// Generate creates a purchase list, its entries, one primary association with the
// supplier and the generation metadata in one transaction
func (s *HistoricalGenerationService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, shared.NewInvalidInputError("INVALID_STATUS", fmt.Sprintf("Unknown price list status %q", *req.Status))
	}
	preview, err := s.compute(ctx, req.HistoricalWindow)
	if err != nil {
		return nil, err
	}
	if len(preview.Products) == 0 {
		return nil, ErrNoHistoricalData
	}

	actor := actorOrDefault(req.Actor)
	now := s.clock.Now()

	list, err := pricelist.NewPriceList(req.Code, req.Name, pricelist.TypePurchase, pricelist.DirectionInput, req.Priority)
	if err != nil {
		return nil, err
	}
	if err := list.SetValidity(req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}
	if req.Status != nil {
		list.Status = *req.Status
	}
	list.Description = req.Description
	list.Currency = s.currency
	list.CreatedBy = actor
	list.ModifiedBy = actor
	list.CreatedAt = now
	list.UpdatedAt = now
	list.Generation = generationMetadata(req.HistoricalWindow, preview, now)

	entries := make([]*pricelist.Entry, 0, len(preview.Products))
	for _, p := range preview.Products {
		entry, err := pricelist.NewEntry(list.ID, p.ProductID, p.FinalPrice, list.Currency)
		if err != nil {
			return nil, err
		}
		entry.ModifiedBy = actor
		entry.CreatedAt = now
		entry.UpdatedAt = now
		entries = append(entries, entry)
	}

	assignment := pricelist.NewPartyAssignment(list.ID, req.SupplierID)
	assignment.IsPrimary = true
	assignment.CreatedAt = now

	err = s.commit(ctx, "generate", func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
		if err := w.CreateList(ctx, list); err != nil {
			return fmt.Errorf("create price list: %w", err)
		}
		if err := w.CreateEntries(ctx, entries); err != nil {
			return fmt.Errorf("create price list entries: %w", err)
		}
		if err := w.CreateAssignments(ctx, []*pricelist.PartyAssignment{assignment}); err != nil {
			return fmt.Errorf("create supplier association: %w", err)
		}
		record := audit.NewEntry(audit.EntityPriceList, list.ID, audit.ActionGenerate, actor, now)
		record.NewSummary = fmt.Sprintf("strategy=%s supplier=%s products=%d skipped=%d",
			req.Strategy, req.SupplierID, len(entries), preview.Skipped)
		return sink.Record(ctx, record)
	})
	if err != nil {
		s.logger.Error("Price list generation failed",
			zap.String("supplier_id", req.SupplierID.String()),
			zap.String("code", req.Code),
			zap.Error(err))
		return nil, fmt.Errorf("generate price list: %w", err)
	}

	s.metrics.RecordGeneration(ctx, string(req.Strategy), len(entries), preview.Skipped)
	s.invalidate(ctx)
	s.logger.Info("Price list generated from purchase history",
		zap.String("price_list_id", list.ID.String()),
		zap.Int("entries", len(entries)),
		zap.Int("skipped", preview.Skipped))
	return &GenerateResult{PriceList: list, EntryCount: len(entries), Skipped: preview.Skipped}, nil
}

// Update re-derives the prices of an existing list. Changed prices are written with
// compare-and-swap; new and obsolete products are added or removed only when the
// matching flag is set and are reported as warnings otherwise.
func (s *HistoricalGenerationService) Update(ctx context.Context, req UpdateFromHistoryRequest) (*UpdateFromHistoryResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	list, err := s.lists.FindByID(ctx, req.PriceListID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrPriceListNotFound
		}
		s.logger.Error("Failed to load price list", zap.String("price_list_id", req.PriceListID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list: %w", err)
	}
	existing, err := s.entries.FindByList(ctx, list.ID)
	if err != nil {
		s.logger.Error("Failed to load price list entries", zap.String("price_list_id", list.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list entries: %w", err)
	}
	preview, err := s.compute(ctx, req.HistoricalWindow)
	if err != nil {
		return nil, err
	}
	if len(preview.Products) == 0 {
		return nil, ErrNoHistoricalData
	}

	actor := actorOrDefault(req.Actor)
	diff := diffEntries(existing, preview.Products)

	var result *UpdateFromHistoryResult
	err = s.commit(ctx, "update_from_history", func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
		result = &UpdateFromHistoryResult{PriceListID: list.ID, Skipped: preview.Skipped}
		now := s.clock.Now()

		for _, c := range diff.changed {
			if c.entry.Price.Equal(c.price.FinalPrice) {
				result.Unchanged++
				continue
			}
			err := w.UpdateEntryPrice(ctx, pricelist.PriceUpdate{
				EntryID:         c.entry.ID,
				ExpectedVersion: c.entry.Version,
				NewPrice:        c.price.FinalPrice,
				ModifiedBy:      actor,
				ModifiedAt:      now,
			})
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				result.Errors = append(result.Errors, BulkRowError{
					EntryID:   c.entry.ID,
					ProductID: c.entry.ProductID,
					Code:      RowConcurrencyConflict,
					Message:   "entry was modified by another process",
				})
				continue
			}
			if err != nil {
				return fmt.Errorf("update entry %s: %w", c.entry.ID, err)
			}
			result.Updated++
		}

		if len(diff.added) > 0 {
			if req.AddNewProducts {
				entries := make([]*pricelist.Entry, 0, len(diff.added))
				for _, p := range diff.added {
					entry, err := pricelist.NewEntry(list.ID, p.ProductID, p.FinalPrice, list.Currency)
					if err != nil {
						return err
					}
					entry.ModifiedBy = actor
					entry.CreatedAt = now
					entry.UpdatedAt = now
					entries = append(entries, entry)
				}
				if err := w.CreateEntries(ctx, entries); err != nil {
					return fmt.Errorf("create price list entries: %w", err)
				}
				result.Added = len(entries)
			} else {
				for _, p := range diff.added {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("product %s was purchased in the window but is not in the list; set addNewProducts to add it", p.ProductCode))
				}
			}
		}

		if len(diff.obsolete) > 0 {
			if req.RemoveObsoleteProducts {
				ids := make([]uuid.UUID, len(diff.obsolete))
				for i, e := range diff.obsolete {
					ids[i] = e.ID
				}
				if err := w.DeleteEntries(ctx, ids, actor, now); err != nil {
					return fmt.Errorf("delete obsolete entries: %w", err)
				}
				result.Removed = len(ids)
			} else {
				for _, e := range diff.obsolete {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("product %s was not purchased in the window; set removeObsoleteProducts to remove it", e.ProductID))
				}
			}
		}

		meta := generationMetadata(req.HistoricalWindow, preview, now)
		if err := w.UpdateGeneration(ctx, list.ID, *meta, actor); err != nil {
			return fmt.Errorf("update generation metadata: %w", err)
		}

		record := audit.NewEntry(audit.EntityPriceList, list.ID, audit.ActionRegenerate, actor, now)
		if list.Generation != nil {
			record.OldSummary = fmt.Sprintf("strategy=%s window=%s..%s",
				list.Generation.Strategy, list.Generation.SourceFrom.Format(time.DateOnly), list.Generation.SourceTo.Format(time.DateOnly))
		}
		record.NewSummary = fmt.Sprintf("strategy=%s unchanged=%d updated=%d added=%d removed=%d failed=%d",
			req.Strategy, result.Unchanged, result.Updated, result.Added, result.Removed, len(result.Errors))
		return sink.Record(ctx, record)
	})
	if err != nil {
		s.logger.Error("Price list regeneration failed", zap.String("price_list_id", list.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("update price list from history: %w", err)
	}

	s.metrics.RecordGeneration(ctx, string(req.Strategy), result.Updated+result.Added+result.Unchanged, result.Skipped)
	s.invalidate(ctx)
	return result, nil
}

// compute validates the window, groups the supplier's purchase lines by product and
// derives one price per product
func (s *HistoricalGenerationService) compute(ctx context.Context, window HistoricalWindow) (*GenerationPreview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !window.FromDate.Before(window.ToDate) || window.ToDate.After(s.clock.Now()) {
		return nil, ErrInvalidDateRange
	}
	if !window.Strategy.IsValid() {
		return nil, fmt.Errorf("%w: %q", pricelist.ErrInvalidStrategy, window.Strategy)
	}
	markup := pricelist.Markup(window.MarkupPercentage, window.Rounding.OrNone())
	if err := markup.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.parties.FindByID(ctx, window.SupplierID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrBusinessPartyNotFound
		}
		s.logger.Error("Failed to load supplier", zap.String("supplier_id", window.SupplierID.String()), zap.Error(err))
		return nil, fmt.Errorf("load supplier: %w", err)
	}

	lines, err := s.documents.FindPurchaseLines(ctx, trade.PurchaseLineQuery{
		SupplierID: window.SupplierID,
		From:       window.FromDate,
		To:         window.ToDate,
	})
	if err != nil {
		s.logger.Error("Failed to load purchase lines", zap.String("supplier_id", window.SupplierID.String()), zap.Error(err))
		return nil, fmt.Errorf("load purchase lines: %w", err)
	}

	order := make([]uuid.UUID, 0)
	byProduct := make(map[uuid.UUID][]pricelist.Occurrence)
	documents := make(map[uuid.UUID]struct{})
	for i := range lines {
		l := &lines[i]
		if _, ok := byProduct[l.ProductID]; !ok {
			order = append(order, l.ProductID)
		}
		byProduct[l.ProductID] = append(byProduct[l.ProductID], l.Occurrence())
		documents[l.DocumentID] = struct{}{}
	}

	products, err := loadProducts(ctx, s.products, order, s.logger)
	if err != nil {
		return nil, err
	}

	preview := &GenerationPreview{
		SupplierID:    window.SupplierID,
		Strategy:      window.Strategy,
		DocumentCount: len(documents),
		Products:      make([]GeneratedPrice, 0, len(order)),
	}
	for _, id := range order {
		product, ok := products[id]
		if !ok || !accepts(window, &product) {
			preview.Skipped++
			continue
		}
		occurrences := byProduct[id]
		summary := pricelist.Summarize(occurrences)
		if summary.TotalQuantity.LessThan(window.MinimumTotalQuantity) {
			preview.Skipped++
			continue
		}
		price, err := window.Strategy.Compute(occurrences)
		if errors.Is(err, shared.ErrNoDataAvailable) {
			preview.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		final, err := markup.Apply(price)
		if err != nil {
			return nil, err
		}
		if final.IsNegative() {
			preview.Skipped++
			continue
		}
		preview.Products = append(preview.Products, GeneratedPrice{
			ProductID:     id,
			ProductCode:   product.Code,
			ProductName:   product.Name,
			Summary:       summary,
			StrategyPrice: price,
			FinalPrice:    final,
		})
	}
	return preview, nil
}

func accepts(window HistoricalWindow, product *catalog.Product) bool {
	if window.ActiveOnly && !product.IsActive() {
		return false
	}
	if len(window.CategoryIDs) > 0 && !product.InCategory(window.CategoryIDs) {
		return false
	}
	return true
}

func generationMetadata(window HistoricalWindow, preview *GenerationPreview, now time.Time) *pricelist.GenerationMetadata {
	return &pricelist.GenerationMetadata{
		Strategy:         window.Strategy,
		SupplierID:       window.SupplierID,
		SourceFrom:       window.FromDate,
		SourceTo:         window.ToDate,
		DocumentCount:    preview.DocumentCount,
		MarkupPercentage: window.MarkupPercentage,
		Rounding:         window.Rounding.OrNone(),
		GeneratedAt:      now,
	}
}

type changedEntry struct {
	entry pricelist.Entry
	price GeneratedPrice
}

type entryDiff struct {
	changed  []changedEntry
	added    []GeneratedPrice
	obsolete []pricelist.Entry
}

// diffEntries pairs every live entry with the freshly computed price of its product
func diffEntries(existing []pricelist.Entry, computed []GeneratedPrice) entryDiff {
	prices := make(map[uuid.UUID]GeneratedPrice, len(computed))
	for _, p := range computed {
		prices[p.ProductID] = p
	}
	listed := make(map[uuid.UUID]struct{}, len(existing))

	var diff entryDiff
	for _, e := range existing {
		if e.IsDeleted {
			continue
		}
		listed[e.ProductID] = struct{}{}
		if p, ok := prices[e.ProductID]; ok {
			diff.changed = append(diff.changed, changedEntry{entry: e, price: p})
		} else {
			diff.obsolete = append(diff.obsolete, e)
		}
	}
	for _, p := range computed {
		if _, ok := listed[p.ProductID]; !ok {
			diff.added = append(diff.added, p)
		}
	}
	return diff
}
