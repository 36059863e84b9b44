package service

import (
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// UnitFactor describes one unit of measure of a product.
// 1 of this unit = ConversionRate base units; the base unit has rate 1.
type UnitFactor struct {
	UnitCode       string
	ConversionRate decimal.Decimal
}

// BaseUnitFactor returns the factor of a product's declared base unit
func BaseUnitFactor(unitCode string) UnitFactor {
	return UnitFactor{UnitCode: unitCode, ConversionRate: decimal.NewFromInt(1)}
}

// PriceConversionResult represents the result of a price conversion
type PriceConversionResult struct {
	SourcePrice    decimal.Decimal
	SourceUnitCode string
	TargetPrice    decimal.Decimal
	TargetUnitCode string
	// Ratio is targetRate / sourceRate
	Ratio decimal.Decimal
}

// UnitConversionService provides unit-of-measure price conversion.
// This is a domain service as it operates across products and price lists.
type UnitConversionService struct{}

// NewUnitConversionService creates a new unit conversion service
func NewUnitConversionService() *UnitConversionService {
	return &UnitConversionService{}
}

// ConvertPrice converts a price quoted per source unit into a price per target unit:
//
//	targetPrice = sourcePrice × (targetRate / sourceRate)
//
// rounded half away from zero to currency precision.
// For example, if a piece costs 1.00 and 1 box = 24 pieces, a box costs 24.00.
func (s *UnitConversionService) ConvertPrice(
	price decimal.Decimal,
	source UnitFactor,
	target UnitFactor,
) (*PriceConversionResult, error) {
	if err := s.ValidateConversionRate(source.ConversionRate); err != nil {
		return nil, err
	}
	if err := s.ValidateConversionRate(target.ConversionRate); err != nil {
		return nil, err
	}

	ratio := target.ConversionRate.Div(source.ConversionRate)
	return &PriceConversionResult{
		SourcePrice:    price,
		SourceUnitCode: source.UnitCode,
		TargetPrice:    price.Mul(ratio).Round(valueobject.CurrencyPrecision),
		TargetUnitCode: target.UnitCode,
		Ratio:          ratio,
	}, nil
}

// CalculateUnitPrice calculates the unit price for a different unit based on conversion rate
// Parameters:
//   - baseUnitPrice: price per base unit
//   - conversionRate: how many base units equal 1 of the target unit
//
// Returns:
//   - decimal.Decimal: price per target unit
func (s *UnitConversionService) CalculateUnitPrice(
	baseUnitPrice decimal.Decimal,
	conversionRate decimal.Decimal,
) decimal.Decimal {
	return baseUnitPrice.Mul(conversionRate).Round(valueobject.CurrencyPrecision)
}

// CalculateBaseUnitPrice calculates the base unit price from a unit price
// Parameters:
//   - unitPrice: price per unit
//   - conversionRate: how many base units equal 1 of this unit
//
// Returns:
//   - decimal.Decimal: price per base unit
func (s *UnitConversionService) CalculateBaseUnitPrice(
	unitPrice decimal.Decimal,
	conversionRate decimal.Decimal,
) decimal.Decimal {
	if conversionRate.IsZero() {
		return decimal.Zero
	}
	return unitPrice.Div(conversionRate).Round(valueobject.CurrencyPrecision)
}

// ValidateConversionRate validates a conversion rate
func (s *UnitConversionService) ValidateConversionRate(rate decimal.Decimal) error {
	if rate.IsZero() {
		return shared.NewInvalidInputError("INVALID_CONVERSION_RATE", "Conversion rate cannot be zero")
	}
	if rate.IsNegative() {
		return shared.NewInvalidInputError("INVALID_CONVERSION_RATE", "Conversion rate cannot be negative")
	}
	return nil
}
