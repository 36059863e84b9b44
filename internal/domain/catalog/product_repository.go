package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductReader is the read-only product port used by the pricing engine
type ProductReader interface {
	// FindByID returns shared.ErrNotFound when the product does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs returns the products that exist, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
}
