package pricelist

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/pricing/internal/application/validate"
	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BulkTransformService re-prices the filtered entries of one list
type BulkTransformService struct {
	mutation
	lists    pricelist.Reader
	entries  pricelist.EntryReader
	products catalog.ProductReader
}

// NewBulkTransformService creates a new BulkTransformService
func NewBulkTransformService(
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	products catalog.ProductReader,
	tx TxRunner,
	clock shared.Clock,
	logger *zap.Logger,
) *BulkTransformService {
	return &BulkTransformService{
		mutation: newMutation(tx, clock, logger),
		lists:    lists,
		entries:  entries,
		products: products,
	}
}

// SetCacheInvalidator sets the cache dropped after each commit
func (s *BulkTransformService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

// SetMetrics sets the metrics recorder
func (s *BulkTransformService) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// Preview computes the new prices without writing. Negative results are shown as
// zero and flagged.
func (s *BulkTransformService) Preview(ctx context.Context, req BulkTransformRequest) (*BulkResult, error) {
	planned, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	result := newBulkResult(req, len(planned))
	for _, p := range planned {
		row := p.row()
		if row.NewPrice.IsNegative() {
			row.NewPrice = decimal0
			row.Clamped = true
		}
		result.Rows = append(result.Rows, row)
		if !row.Clamped {
			result.UpdatedCount++
		}
	}
	result.settle()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Commit writes the new prices in one transaction. Rows with a negative result or a
// lost version race are reported in Errors and do not abort the batch.
func (s *BulkTransformService) Commit(ctx context.Context, req BulkTransformRequest) (*BulkResult, error) {
	planned, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	actor := actorOrDefault(req.Actor)

	var result *BulkResult
	err = s.commit(ctx, "bulk_transform", func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
		result = newBulkResult(req, len(planned))
		result.Committed = true
		now := s.clock.Now()

		for _, p := range planned {
			if p.newPrice.IsNegative() {
				result.Errors = append(result.Errors, BulkRowError{
					EntryID:   p.entry.ID,
					ProductID: p.entry.ProductID,
					Code:      RowNegativePrice,
					Message:   fmt.Sprintf("computed price %s is negative", p.newPrice),
				})
				continue
			}
			err := w.UpdateEntryPrice(ctx, pricelist.PriceUpdate{
				EntryID:         p.entry.ID,
				ExpectedVersion: p.entry.Version,
				NewPrice:        p.newPrice,
				ModifiedBy:      actor,
				ModifiedAt:      now,
			})
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				result.Errors = append(result.Errors, BulkRowError{
					EntryID:   p.entry.ID,
					ProductID: p.entry.ProductID,
					Code:      RowConcurrencyConflict,
					Message:   "entry was modified by another process",
				})
				continue
			}
			if err != nil {
				return fmt.Errorf("update entry %s: %w", p.entry.ID, err)
			}
			result.Rows = append(result.Rows, p.row())
			result.UpdatedCount++
		}
		result.settle()

		entry := audit.NewEntry(audit.EntityPriceList, req.PriceListID, audit.ActionBulkTransform, actor, now)
		entry.OldSummary = fmt.Sprintf("operation=%s value=%s rounding=%s matched=%d",
			req.Operation, req.Value, req.Rounding.OrNone(), result.TotalMatched)
		entry.NewSummary = fmt.Sprintf("updated=%d failed=%d", result.UpdatedCount, result.FailedCount)
		return sink.Record(ctx, entry)
	})
	if err != nil {
		s.logger.Error("Bulk transform failed",
			zap.String("price_list_id", req.PriceListID.String()),
			zap.String("operation", string(req.Operation)),
			zap.Error(err))
		return nil, fmt.Errorf("commit bulk transform: %w", err)
	}

	s.metrics.RecordBulkRows(ctx, string(req.Operation), result.UpdatedCount, result.FailedCount)
	s.invalidate(ctx)
	s.logger.Info("Bulk transform committed",
		zap.String("price_list_id", req.PriceListID.String()),
		zap.Int("updated", result.UpdatedCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

type plannedRow struct {
	entry    pricelist.Entry
	newPrice decimal.Decimal
}

func (p plannedRow) row() BulkRow {
	return BulkRow{
		EntryID:   p.entry.ID,
		ProductID: p.entry.ProductID,
		OldPrice:  p.entry.Price,
		NewPrice:  p.newPrice,
	}
}

// plan validates the request, selects the entries and computes the new prices
func (s *BulkTransformService) plan(ctx context.Context, req BulkTransformRequest) ([]plannedRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	transform := req.transform()
	if err := transform.Validate(); err != nil {
		return nil, err
	}
	if f := req.Filter; f.MinPrice != nil && f.MaxPrice != nil && f.MaxPrice.LessThan(*f.MinPrice) {
		return nil, shared.NewInvalidInputError("INVALID_PRICE_RANGE", "maxPrice cannot be below minPrice")
	}

	if _, err := s.lists.FindByID(ctx, req.PriceListID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrPriceListNotFound
		}
		s.logger.Error("Failed to load price list", zap.String("price_list_id", req.PriceListID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list: %w", err)
	}
	entries, err := s.entries.FindByList(ctx, req.PriceListID)
	if err != nil {
		s.logger.Error("Failed to load price list entries", zap.String("price_list_id", req.PriceListID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list entries: %w", err)
	}

	matched, err := s.match(ctx, entries, req.Filter)
	if err != nil {
		return nil, err
	}

	planned := make([]plannedRow, 0, len(matched))
	for _, e := range matched {
		price, err := transform.Apply(e.Price)
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedRow{entry: e, newPrice: price})
	}
	return planned, nil
}

func (s *BulkTransformService) match(ctx context.Context, entries []pricelist.Entry, f EntryFilter) ([]pricelist.Entry, error) {
	var products map[uuid.UUID]catalog.Product
	if f.needsProducts() {
		var err error
		products, err = loadProducts(ctx, s.products, productIDsOf(entries), s.logger)
		if err != nil {
			return nil, err
		}
	}
	wanted := idSet(f.ProductIDs)

	out := make([]pricelist.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDeleted {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[e.ProductID]; !ok {
				continue
			}
		}
		if f.MinPrice != nil && e.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && e.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.needsProducts() {
			p, ok := products[e.ProductID]
			if !ok {
				continue
			}
			if len(f.CategoryIDs) > 0 && !p.InCategory(f.CategoryIDs) {
				continue
			}
			if len(f.BrandIDs) > 0 && !p.HasBrand(f.BrandIDs) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func newBulkResult(req BulkTransformRequest, matched int) *BulkResult {
	return &BulkResult{
		PriceListID:  req.PriceListID,
		Operation:    req.Operation,
		TotalMatched: matched,
		Rows:         make([]BulkRow, 0, matched),
		Errors:       make([]BulkRowError, 0),
	}
}
