package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/application/validate"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDocumentNotFound is returned when a referenced document does not exist
var ErrDocumentNotFound = shared.NewNotFoundError("DOCUMENT_NOT_FOUND", "Document not found")

// CascadingResolver resolves a price from a document context through four list tiers
// and the product default price
type CascadingResolver struct {
	products  catalog.ProductReader
	lists     pricelist.Reader
	entries   pricelist.EntryReader
	documents trade.DocumentReader
	parties   partner.Reader
	clock     shared.Clock
	currency  valueobject.Currency
	metrics   Metrics
	logger    *zap.Logger
}

// NewCascadingResolver creates a new CascadingResolver
func NewCascadingResolver(
	products catalog.ProductReader,
	lists pricelist.Reader,
	entries pricelist.EntryReader,
	documents trade.DocumentReader,
	parties partner.Reader,
	clock shared.Clock,
	logger *zap.Logger,
) *CascadingResolver {
	return &CascadingResolver{
		products:  products,
		lists:     lists,
		entries:   entries,
		documents: documents,
		parties:   parties,
		clock:     clock,
		currency:  valueobject.DefaultCurrency,
		metrics:   NoopMetrics,
		logger:    logger,
	}
}

// SetCurrency sets the currency of default prices and of entries without one
func (r *CascadingResolver) SetCurrency(currency valueobject.Currency) {
	r.currency = currency.OrDefault()
}

// SetMetrics sets the metrics recorder
func (r *CascadingResolver) SetMetrics(metrics Metrics) {
	r.metrics = metrics
}

// Resolve tries, first hit wins: the forced list parameter, the document's list, the
// party default list for the direction, the first active valid list of the direction,
// then the product default price, then zero.
func (r *CascadingResolver) Resolve(ctx context.Context, req CascadeRequest) (*PriceResolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Direction != nil && !req.Direction.IsValid() {
		return nil, shared.NewInvalidInputError("INVALID_DIRECTION", "Direction must be output or input")
	}

	start := time.Now()
	result, err := r.resolve(ctx, req)
	source := "unknown"
	if err == nil {
		source = "cascade_" + result.Source.String()
	}
	r.metrics.RecordResolution(ctx, source, err == nil && result.IsFallback, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *CascadingResolver) resolve(ctx context.Context, req CascadeRequest) (PriceResolution, error) {
	var path trace
	at := r.clock.Now()
	if req.EvaluationDate != nil {
		at = *req.EvaluationDate
	}

	product, err := loadProduct(ctx, r.products, req.ProductID, r.logger)
	if err != nil {
		return PriceResolution{}, err
	}

	// Tier 1: forced list parameter
	if req.ForcedPriceListID != nil {
		hit, err := r.fromList(ctx, *req.ForcedPriceListID, product, pricelist.SourceParameterList, &path)
		if err != nil || hit != nil {
			return finish(hit, path, err)
		}
	} else {
		path.addf("tier %s: no forced price list supplied", pricelist.SourceParameterList)
	}

	// Tier 2: document header
	direction := pricelist.DirectionOutput
	directionKnown := false
	if req.Direction != nil {
		direction = *req.Direction
		directionKnown = true
	}
	partyID := req.BusinessPartyID
	if req.DocumentID != nil {
		header, err := r.documents.FindHeaderByID(ctx, *req.DocumentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return PriceResolution{}, ErrDocumentNotFound
			}
			r.logger.Error("Failed to load document header", zap.String("document_id", req.DocumentID.String()), zap.Error(err))
			return PriceResolution{}, fmt.Errorf("load document header: %w", err)
		}
		if !directionKnown {
			direction = header.Direction()
			directionKnown = true
			path.addf("direction %s inferred from document %s", direction, header.Number)
		}
		if partyID == nil {
			partyID = header.BusinessPartyID
		}
		if header.PriceListID != nil {
			hit, err := r.fromList(ctx, *header.PriceListID, product, pricelist.SourceDocumentList, &path)
			if err != nil || hit != nil {
				return finish(hit, path, err)
			}
		} else {
			path.addf("tier %s: document %s carries no price list", pricelist.SourceDocumentList, header.Number)
		}
	} else {
		path.addf("tier %s: no document supplied", pricelist.SourceDocumentList)
	}
	if !directionKnown {
		path.addf("direction defaults to %s", direction)
	}

	// Tier 3: business party default list for the direction
	if partyID != nil {
		party, err := r.parties.FindByID(ctx, *partyID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return PriceResolution{}, ErrBusinessPartyNotFound
			}
			r.logger.Error("Failed to load business party", zap.String("business_party_id", partyID.String()), zap.Error(err))
			return PriceResolution{}, fmt.Errorf("load business party: %w", err)
		}
		if listID := party.DefaultListFor(direction); listID != nil {
			hit, err := r.fromList(ctx, *listID, product, pricelist.SourcePartyList, &path)
			if err != nil || hit != nil {
				return finish(hit, path, err)
			}
		} else {
			path.addf("tier %s: business party %s has no default %s list", pricelist.SourcePartyList, party.Code, direction)
		}
	} else {
		path.addf("tier %s: no business party supplied", pricelist.SourcePartyList)
	}

	// Tier 4: first active, valid list of the direction by priority
	hit, err := r.fromGeneralLists(ctx, direction, product, at, &path)
	if err != nil || hit != nil {
		return finish(hit, path, err)
	}

	result := fallbackResolution(product, pricelist.ModeAutomatic, r.currency, &path)
	result.Source = pricelist.SourceDefaultPrice
	result.SearchPath = path.steps()
	return result, nil
}

// fromList returns the product's entry in one named list, or nil when the list
// does not exist or does not price the product
func (r *CascadingResolver) fromList(
	ctx context.Context,
	listID uuid.UUID,
	product *catalog.Product,
	source pricelist.PriceSource,
	path *trace,
) (*PriceResolution, error) {
	list, err := r.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			path.addf("tier %s: price list %s not found", source, listID)
			return nil, nil
		}
		r.logger.Error("Failed to load price list", zap.String("price_list_id", listID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list: %w", err)
	}
	entries, err := r.entries.FindByListAndProduct(ctx, listID, product.ID)
	if err != nil {
		r.logger.Error("Failed to load price list entries", zap.String("price_list_id", listID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list entries: %w", err)
	}
	entry := baseEntry(entries)
	if entry == nil {
		path.addf("tier %s: price list %s has no entry for product %s", source, list.Name, product.Code)
		return nil, nil
	}
	path.addf("tier %s: price list %s prices product %s at %s", source, list.Name, product.Code, entry.Price)
	return r.tiered(product, list, entry, source), nil
}

func (r *CascadingResolver) fromGeneralLists(
	ctx context.Context,
	direction pricelist.Direction,
	product *catalog.Product,
	at time.Time,
	path *trace,
) (*PriceResolution, error) {
	lists, err := r.lists.FindActiveByDirection(ctx, direction)
	if err != nil {
		r.logger.Error("Failed to load active price lists", zap.String("direction", string(direction)), zap.Error(err))
		return nil, fmt.Errorf("load active price lists: %w", err)
	}
	entries, err := r.entries.FindByProduct(ctx, product.ID)
	if err != nil {
		r.logger.Error("Failed to load price list entries", zap.String("product_id", product.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("load price list entries: %w", err)
	}
	byList := make(map[uuid.UUID][]pricelist.Entry)
	for _, e := range entries {
		byList[e.PriceListID] = append(byList[e.PriceListID], e)
	}

	for i := range lists {
		list := &lists[i]
		if !list.IsActive() || !list.CoversDate(at) {
			continue
		}
		if entry := baseEntry(byList[list.ID]); entry != nil {
			path.addf("tier %s: active %s list %s (priority %d) prices product %s at %s",
				pricelist.SourceGeneralList, direction, list.Name, list.Priority, product.Code, entry.Price)
			return r.tiered(product, list, entry, pricelist.SourceGeneralList), nil
		}
	}
	path.addf("tier %s: no active %s list prices product %s", pricelist.SourceGeneralList, direction, product.Code)
	return nil, nil
}

// baseEntry picks the live entry with the lowest minimum quantity
func baseEntry(entries []pricelist.Entry) *pricelist.Entry {
	var best *pricelist.Entry
	for i := range entries {
		e := &entries[i]
		if e.IsDeleted {
			continue
		}
		if best == nil || e.MinQuantity.LessThan(best.MinQuantity) {
			best = e
		}
	}
	return best
}

func (r *CascadingResolver) tiered(product *catalog.Product, list *pricelist.PriceList, entry *pricelist.Entry, source pricelist.PriceSource) *PriceResolution {
	result := newListResolution(product.ID, pricelist.ModeAutomatic, list, entry, list.Priority, r.currency)
	result.Source = source
	return &result
}

func finish(hit *PriceResolution, path trace, err error) (PriceResolution, error) {
	if err != nil {
		return PriceResolution{}, err
	}
	hit.SearchPath = path.steps()
	return *hit, nil
}
