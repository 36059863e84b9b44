package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/application/validate"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrManualPriceRequired is returned when Manual mode has no strictly positive price
var ErrManualPriceRequired = shared.NewInvalidInputError("MANUAL_PRICE_REQUIRED", "A manual price greater than zero is required")

// PriceApplicationService is the façade resolving one price request end to end
type PriceApplicationService struct {
	selector  *ModeSelector
	forced    *ForcedListResolver
	automatic *AutomaticResolver
	converter *UnitPriceConverter
	clock     shared.Clock
	currency  valueobject.Currency
	cache     ResolutionCache
	metrics   Metrics
	logger    *zap.Logger
}

// NewPriceApplicationService creates a new PriceApplicationService
func NewPriceApplicationService(
	selector *ModeSelector,
	forced *ForcedListResolver,
	automatic *AutomaticResolver,
	converter *UnitPriceConverter,
	clock shared.Clock,
	logger *zap.Logger,
) *PriceApplicationService {
	return &PriceApplicationService{
		selector:  selector,
		forced:    forced,
		automatic: automatic,
		converter: converter,
		clock:     clock,
		currency:  valueobject.DefaultCurrency,
		metrics:   NoopMetrics,
		logger:    logger,
	}
}

// SetCurrency sets the currency reported for manual prices
func (s *PriceApplicationService) SetCurrency(currency valueobject.Currency) {
	s.currency = currency.OrDefault()
}

// SetCache enables resolution caching
func (s *PriceApplicationService) SetCache(cache ResolutionCache) {
	s.cache = cache
}

// SetMetrics sets the metrics recorder
func (s *PriceApplicationService) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// Resolve selects the mode for the request and resolves the price under it
func (s *PriceApplicationService) Resolve(ctx context.Context, req PriceRequest) (*PriceResolution, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "price_application", "resolve", "product_id", req.ProductID.String())
	result, err := s.resolveRequest(ctx, req)
	if err == nil {
		telemetry.SetAttributes(span, "mode", result.Mode.String(), "fallback", result.IsFallback)
	}
	telemetry.End(span, err)
	return result, err
}

func (s *PriceApplicationService) resolveRequest(ctx context.Context, req PriceRequest) (*PriceResolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	start := time.Now()
	at := s.clock.Now()
	if req.EvaluationDate != nil {
		at = *req.EvaluationDate
	}
	filter := pricelist.NewValidityFilter(at, req.Quantity)
	req.Quantity = filter.Quantity

	key := cacheKey(req, at)
	cached, generation, writable := s.fromCache(ctx, key)
	if cached != nil {
		return cached, nil
	}

	result, err := s.resolve(ctx, req, filter)
	strategy := "unknown"
	if err == nil {
		strategy = result.Mode.String()
	} else if req.Mode != nil {
		strategy = req.Mode.String()
	}
	s.metrics.RecordResolution(ctx, strategy, err == nil && result.IsFallback, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if writable {
		s.toCache(ctx, generation, key, result)
	}
	return &result, nil
}

func (s *PriceApplicationService) resolve(
	ctx context.Context,
	req PriceRequest,
	filter pricelist.ValidityFilter,
) (PriceResolution, error) {
	selection, err := s.selector.Select(ctx, req.Mode, req.BusinessPartyID)
	if err != nil {
		return PriceResolution{}, err
	}

	var result PriceResolution
	switch selection.Mode {
	case pricelist.ModeManual:
		result, err = s.manual(req)
	case pricelist.ModeForcedPriceList:
		result, err = s.forced.Resolve(ctx, req, selection.Party, filter)
	case pricelist.ModeHybrid:
		result, err = s.hybrid(ctx, req, selection, filter)
	case pricelist.ModeAutomatic:
		result, err = s.automatic.Resolve(ctx, req, filter)
	default:
		return PriceResolution{}, shared.NewInvalidInputError("INVALID_MODE",
			fmt.Sprintf("Unknown price application mode %q", selection.Mode))
	}
	if err != nil {
		return PriceResolution{}, err
	}

	result.SearchPath = append(append([]string(nil), selection.Steps...), result.SearchPath...)
	result = result.WithWarnings(selection.Warnings...)

	if selection.Mode == pricelist.ModeManual || (selection.Mode == pricelist.ModeHybrid && isPositive(req.ManualPrice)) {
		return result, nil
	}
	return s.convertUnit(ctx, req, result)
}

// manual passes the supplied price through without any list lookup
func (s *PriceApplicationService) manual(req PriceRequest) (PriceResolution, error) {
	if !isPositive(req.ManualPrice) {
		return PriceResolution{}, ErrManualPriceRequired
	}
	price := *req.ManualPrice
	return PriceResolution{
		ProductID:          req.ProductID,
		Mode:               pricelist.ModeManual,
		Price:              price,
		OriginalPrice:      price,
		Currency:           s.currency,
		DiscountPercentage: decimal0,
		UnitCode:           req.UnitCode,
		ConversionRate:     decimal1,
		SearchPath:         []string{fmt.Sprintf("manual price %s supplied; no price list consulted", price)},
	}, nil
}

// hybrid uses a positive manual price when present, else the forced list, then relabels
func (s *PriceApplicationService) hybrid(
	ctx context.Context,
	req PriceRequest,
	selection ModeSelection,
	filter pricelist.ValidityFilter,
) (PriceResolution, error) {
	var (
		result PriceResolution
		err    error
	)
	if isPositive(req.ManualPrice) {
		result, err = s.manual(req)
	} else {
		result, err = s.forced.Resolve(ctx, req, selection.Party, filter)
	}
	if err != nil {
		return PriceResolution{}, err
	}
	return result.WithMode(pricelist.ModeHybrid).WithSteps("result reported under hybrid mode"), nil
}

func (s *PriceApplicationService) convertUnit(ctx context.Context, req PriceRequest, result PriceResolution) (PriceResolution, error) {
	if req.UnitCode == "" {
		return result, nil
	}
	price, err := s.converter.Convert(ctx, req.ProductID, result.Price, result.UnitCode, req.UnitCode)
	if err != nil {
		return PriceResolution{}, err
	}
	if price.Warning != "" {
		result.UnitCode = price.UnitCode
		return result.WithWarnings(price.Warning).WithSteps(price.Warning), nil
	}
	if !price.Converted {
		return result, nil
	}

	original, err := s.converter.Convert(ctx, req.ProductID, result.OriginalPrice, result.UnitCode, req.UnitCode)
	if err != nil {
		return PriceResolution{}, err
	}
	step := fmt.Sprintf("converted price to unit %s (ratio %s): %s -> %s",
		price.UnitCode, price.Ratio, result.Price, price.Price)
	if original.Converted {
		result.OriginalPrice = original.Price
	}
	result.Price = price.Price
	result.UnitCode = price.UnitCode
	result.ConversionRate = price.Ratio
	return result.WithSteps(step), nil
}

// fromCache returns a cached resolution on a hit. On a miss it reports the
// generation the lookup ran under and whether the result may be written back.
func (s *PriceApplicationService) fromCache(ctx context.Context, key string) (*PriceResolution, uint64, bool) {
	if s.cache == nil {
		return nil, 0, false
	}
	data, generation, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Resolution cache read failed", zap.Error(err))
		return nil, 0, false
	}
	if !ok {
		return nil, generation, true
	}
	var result PriceResolution
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("Resolution cache entry unreadable", zap.Error(err))
		return nil, generation, true
	}
	return &result, generation, true
}

func (s *PriceApplicationService) toCache(ctx context.Context, generation uint64, key string, result PriceResolution) {
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("Resolution not cacheable", zap.Error(err))
		return
	}
	if err := s.cache.SetAt(ctx, generation, key, data); err != nil {
		s.logger.Warn("Resolution cache write failed", zap.Error(err))
	}
}
