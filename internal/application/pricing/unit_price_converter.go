package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConvertedPrice is the outcome of a unit conversion
type ConvertedPrice struct {
	Price     decimal.Decimal
	UnitCode  string
	Ratio     decimal.Decimal
	Converted bool
	// Warning is set when conversion was skipped for a missing unit record
	Warning string
}

// UnitPriceConverter converts resolved prices between units of a product
type UnitPriceConverter struct {
	products   catalog.ProductReader
	units      catalog.ProductUnitReader
	conversion *service.UnitConversionService
	logger     *zap.Logger
}

// NewUnitPriceConverter creates a new UnitPriceConverter
func NewUnitPriceConverter(
	products catalog.ProductReader,
	units catalog.ProductUnitReader,
	logger *zap.Logger,
) *UnitPriceConverter {
	return &UnitPriceConverter{
		products:   products,
		units:      units,
		conversion: service.NewUnitConversionService(),
		logger:     logger,
	}
}

// Convert returns price × (targetFactor / sourceFactor) rounded to 2 places.
// An empty unit code means the product base unit. A missing unit record skips the
// conversion and returns the unconverted price with a warning.
func (c *UnitPriceConverter) Convert(
	ctx context.Context,
	productID uuid.UUID,
	price decimal.Decimal,
	sourceUnit, targetUnit string,
) (ConvertedPrice, error) {
	unchanged := ConvertedPrice{Price: price, UnitCode: sourceUnit, Ratio: decimal1}
	if targetUnit == "" || targetUnit == sourceUnit {
		return unchanged, nil
	}

	product, err := loadProduct(ctx, c.products, productID, c.logger)
	if err != nil {
		return ConvertedPrice{}, err
	}
	if sourceUnit == "" {
		sourceUnit = product.Unit
		unchanged.UnitCode = product.Unit
	}
	if targetUnit == sourceUnit {
		return unchanged, nil
	}

	source, found, err := c.factor(ctx, product, sourceUnit)
	if err != nil {
		return ConvertedPrice{}, err
	}
	if !found {
		return c.skipped(unchanged, product, sourceUnit), nil
	}
	target, found, err := c.factor(ctx, product, targetUnit)
	if err != nil {
		return ConvertedPrice{}, err
	}
	if !found {
		return c.skipped(unchanged, product, targetUnit), nil
	}

	result, err := c.conversion.ConvertPrice(price, source, target)
	if err != nil {
		return ConvertedPrice{}, err
	}
	return ConvertedPrice{
		Price:     result.TargetPrice,
		UnitCode:  result.TargetUnitCode,
		Ratio:     result.Ratio,
		Converted: true,
	}, nil
}

func (c *UnitPriceConverter) factor(ctx context.Context, product *catalog.Product, unitCode string) (service.UnitFactor, bool, error) {
	if unitCode == product.Unit {
		return service.BaseUnitFactor(unitCode), true, nil
	}
	unit, err := c.units.FindByProductIDAndCode(ctx, product.ID, unitCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return service.UnitFactor{}, false, nil
		}
		c.logger.Error("Failed to load product unit",
			zap.String("product_id", product.ID.String()),
			zap.String("unit_code", unitCode),
			zap.Error(err))
		return service.UnitFactor{}, false, fmt.Errorf("load product unit: %w", err)
	}
	return service.UnitFactor{UnitCode: unit.UnitCode, ConversionRate: unit.ConversionRate}, true, nil
}

func (c *UnitPriceConverter) skipped(unchanged ConvertedPrice, product *catalog.Product, missing string) ConvertedPrice {
	unchanged.Warning = fmt.Sprintf("unit %s not found for product %s; price kept in %s", missing, product.Code, unchanged.UnitCode)
	c.logger.Warn("Unit conversion skipped",
		zap.String("product_id", product.ID.String()),
		zap.String("unit_code", missing))
	return unchanged
}
