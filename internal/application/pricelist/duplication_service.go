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
	"go.uber.org/zap"
)

// ErrMutuallyExclusiveFilters is returned when product ids and category ids are both given
var ErrMutuallyExclusiveFilters = shared.NewInvalidInputError("MUTUALLY_EXCLUSIVE_FILTERS",
	"productIds and categoryIds cannot be combined")

// DuplicationService clones a list with optional entry filters, markup and associations
type DuplicationService struct {
	mutation
	lists       pricelist.Reader
	entries     pricelist.EntryReader
	assignments pricelist.AssignmentReader
	products    catalog.ProductReader
}

// NewDuplicationService creates a new DuplicationService
func NewDuplicationService(
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	assignments pricelist.AssignmentReader,
	products catalog.ProductReader,
	tx TxRunner,
	clock shared.Clock,
	logger *zap.Logger,
) *DuplicationService {
	return &DuplicationService{
		mutation:    newMutation(tx, clock, logger),
		lists:       lists,
		entries:     entries,
		assignments: assignments,
		products:    products,
	}
}

// SetCacheInvalidator sets the cache dropped after each commit
func (s *DuplicationService) SetCacheInvalidator(invalidator CacheInvalidator) {
	s.invalidator = invalidator
}

// Duplicate creates the copy and its entries and associations in one transaction.
// The copy is never the default list.
func (s *DuplicationService) Duplicate(ctx context.Context, req DuplicateRequest) (*DuplicateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if len(req.ProductIDs) > 0 && len(req.CategoryIDs) > 0 {
		return nil, ErrMutuallyExclusiveFilters
	}
	markup := decimal0
	if req.MarkupPercentage != nil {
		markup = *req.MarkupPercentage
	}
	transform := pricelist.Markup(markup, req.Rounding.OrNone())
	if err := transform.Validate(); err != nil {
		return nil, err
	}

	source, err := s.lists.FindByID(ctx, req.SourcePriceListID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrPriceListNotFound
		}
		s.logger.Error("Failed to load source price list",
			zap.String("price_list_id", req.SourcePriceListID.String()), zap.Error(err))
		return nil, fmt.Errorf("load source price list: %w", err)
	}

	actor := actorOrDefault(req.Actor)
	now := s.clock.Now()
	copyList, err := newCopy(source, req, actor)
	if err != nil {
		return nil, err
	}
	copyList.CreatedAt = now
	copyList.UpdatedAt = now

	result := &DuplicateResult{PriceList: copyList}

	var entries []*pricelist.Entry
	if req.CopyEntries {
		rows, err := s.entries.FindByList(ctx, source.ID)
		if err != nil {
			s.logger.Error("Failed to load source entries", zap.String("price_list_id", req.SourcePriceListID.String()), zap.Error(err))
			return nil, fmt.Errorf("load source entries: %w", err)
		}
		selected, err := s.selectEntries(ctx, rows, req)
		if err != nil {
			return nil, err
		}
		for i := range selected {
			e := &selected[i]
			price, err := transform.Apply(e.Price)
			if err != nil {
				return nil, err
			}
			if price.IsNegative() {
				result.Errors = append(result.Errors, BulkRowError{
					EntryID:   e.ID,
					ProductID: e.ProductID,
					Code:      RowNegativePrice,
					Message:   fmt.Sprintf("computed price %s is negative", price),
				})
				continue
			}
			entries = append(entries, e.CloneInto(copyList.ID, price, actor, now))
		}
	}

	var assignments []*pricelist.PartyAssignment
	if req.CopyAssignments {
		existing, err := s.assignments.FindByListIDs(ctx, []uuid.UUID{source.ID})
		if err != nil {
			s.logger.Error("Failed to load source associations", zap.String("price_list_id", req.SourcePriceListID.String()), zap.Error(err))
			return nil, fmt.Errorf("load source associations: %w", err)
		}
		for i := range existing {
			clone := existing[i].CloneInto(copyList.ID, now)
			if err := clone.ValidateWithin(copyList); err != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("association with business party %s lies outside the new list validity", clone.BusinessPartyID))
			}
			assignments = append(assignments, clone)
		}
	}

	err = s.commit(ctx, "duplicate", func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
		if err := w.CreateList(ctx, copyList); err != nil {
			return fmt.Errorf("create price list: %w", err)
		}
		if len(entries) > 0 {
			if err := w.CreateEntries(ctx, entries); err != nil {
				return fmt.Errorf("create price list entries: %w", err)
			}
		}
		if len(assignments) > 0 {
			if err := w.CreateAssignments(ctx, assignments); err != nil {
				return fmt.Errorf("create associations: %w", err)
			}
		}
		record := audit.NewEntry(audit.EntityPriceList, copyList.ID, audit.ActionDuplicate, actor, now)
		record.OldSummary = fmt.Sprintf("source=%s code=%s", source.ID, source.Code)
		record.NewSummary = fmt.Sprintf("code=%s entries=%d associations=%d failed=%d",
			copyList.Code, len(entries), len(assignments), len(result.Errors))
		return sink.Record(ctx, record)
	})
	if err != nil {
		s.logger.Error("Price list duplication failed",
			zap.String("source_price_list_id", source.ID.String()),
			zap.String("code", req.Code),
			zap.Error(err))
		return nil, fmt.Errorf("duplicate price list: %w", err)
	}

	result.EntryCount = len(entries)
	result.AssignmentCount = len(assignments)
	s.invalidate(ctx)
	s.logger.Info("Price list duplicated",
		zap.String("source_price_list_id", source.ID.String()),
		zap.String("price_list_id", copyList.ID.String()),
		zap.Int("entries", result.EntryCount),
		zap.Int("associations", result.AssignmentCount))
	return result, nil
}

func newCopy(source *pricelist.PriceList, req DuplicateRequest, actor string) (*pricelist.PriceList, error) {
	listType, direction, priority := source.Type, source.Direction, source.Priority
	if req.Type != nil {
		listType = *req.Type
	}
	if req.Direction != nil {
		direction = *req.Direction
	}
	if req.Priority != nil {
		priority = *req.Priority
	}

	list, err := pricelist.NewPriceList(req.Code, req.Name, listType, direction, priority)
	if err != nil {
		return nil, err
	}
	list.Status = source.Status
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, shared.NewInvalidInputError("INVALID_STATUS", fmt.Sprintf("Unknown price list status %q", *req.Status))
		}
		list.Status = *req.Status
	}
	from, to := source.ValidFrom, source.ValidTo
	if req.ValidFrom != nil {
		from = req.ValidFrom
	}
	if req.ValidTo != nil {
		to = req.ValidTo
	}
	if err := list.SetValidity(from, to); err != nil {
		return nil, err
	}
	list.Description = req.Description
	list.Currency = source.Currency
	list.EventID = source.EventID
	list.IsDefault = false
	list.CreatedBy = actor
	list.ModifiedBy = actor
	return list, nil
}

func (s *DuplicationService) selectEntries(ctx context.Context, entries []pricelist.Entry, req DuplicateRequest) ([]pricelist.Entry, error) {
	var products map[uuid.UUID]catalog.Product
	if req.ActiveOnly || len(req.CategoryIDs) > 0 {
		var err error
		products, err = loadProducts(ctx, s.products, productIDsOf(entries), s.logger)
		if err != nil {
			return nil, err
		}
	}
	wanted := idSet(req.ProductIDs)

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
		if products != nil {
			p, ok := products[e.ProductID]
			if !ok {
				continue
			}
			if req.ActiveOnly && !p.IsActive() {
				continue
			}
			if len(req.CategoryIDs) > 0 && !p.InCategory(req.CategoryIDs) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}
