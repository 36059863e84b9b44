package trade

import (
	"context"

	"github.com/google/uuid"
)

// DocumentReader is the read-only document port
type DocumentReader interface {
	// FindHeaderByID returns shared.ErrNotFound when the document does not exist
	FindHeaderByID(ctx context.Context, id uuid.UUID) (*DocumentHeader, error)

	// FindPurchaseLines returns the lines of stock-increase documents issued by the
	// supplier whose date lies in [From, To], ordered by date ascending
	FindPurchaseLines(ctx context.Context, query PurchaseLineQuery) ([]DocumentLine, error)
}
