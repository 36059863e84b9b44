package partner

import (
	"context"

	"github.com/google/uuid"
)

// Reader is the read-only business party port
type Reader interface {
	// FindByID returns shared.ErrNotFound when the party does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*BusinessParty, error)

	// FindByIDs returns the parties that exist, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]BusinessParty, error)
}
