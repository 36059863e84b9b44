package catalog

import (
	"strings"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductUnit represents an alternate unit for a product with conversion rate
// It defines how different units relate to the base unit (e.g., 1 box = 24 pcs)
type ProductUnit struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	UnitCode       string
	UnitName       string
	ConversionRate decimal.Decimal
}

// NewProductUnit creates a new product unit
func NewProductUnit(productID uuid.UUID, unitCode, unitName string, conversionRate decimal.Decimal) (*ProductUnit, error) {
	if strings.TrimSpace(unitCode) == "" {
		return nil, shared.NewInvalidInputError("INVALID_UNIT_CODE", "Unit code cannot be empty")
	}
	if !conversionRate.IsPositive() {
		return nil, shared.NewInvalidInputError("INVALID_CONVERSION_RATE", "Conversion rate must be positive")
	}
	return &ProductUnit{
		ID:             uuid.New(),
		ProductID:      productID,
		UnitCode:       unitCode,
		UnitName:       unitName,
		ConversionRate: conversionRate,
	}, nil
}
