package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductUnitReader is the read-only unit-of-measure port
type ProductUnitReader interface {
	// FindByProductIDAndCode finds a specific unit for a product by code.
	// Returns shared.ErrNotFound when the product has no such unit.
	FindByProductIDAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*ProductUnit, error)
}
