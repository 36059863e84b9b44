package pricelist

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reader loads price lists. Every query excludes soft-deleted rows.
type Reader interface {
	// FindByID returns shared.ErrNotFound when the list does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*PriceList, error)

	// FindByIDs returns the lists that exist, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]PriceList, error)

	// FindByEventID returns every list linked to an event
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]PriceList, error)

	// FindActiveByDirection returns active lists of a direction ordered by priority ascending,
	// then by creation time descending
	FindActiveByDirection(ctx context.Context, direction Direction) ([]PriceList, error)
}

// EntryReader loads price list entries. Every query excludes soft-deleted rows.
type EntryReader interface {
	// FindByProduct returns the entries of a product across all lists
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Entry, error)

	// FindByListAndProduct returns the entries of a product inside one list
	FindByListAndProduct(ctx context.Context, priceListID, productID uuid.UUID) ([]Entry, error)

	// FindByList returns every entry of a list
	FindByList(ctx context.Context, priceListID uuid.UUID) ([]Entry, error)
}

// AssignmentReader loads business party associations. Every query excludes soft-deleted rows.
type AssignmentReader interface {
	// FindByListIDs returns the associations of the given lists
	FindByListIDs(ctx context.Context, priceListIDs []uuid.UUID) ([]PartyAssignment, error)

	// FindByListAndParty returns shared.ErrNotFound when the party is not associated with the list
	FindByListAndParty(ctx context.Context, priceListID, businessPartyID uuid.UUID) (*PartyAssignment, error)
}

// Writer is the mutation surface used by bulk transform, generation and duplication.
// Implementations are expected to run inside a transaction supplied by the caller.
type Writer interface {
	// CreateList persists a new list
	CreateList(ctx context.Context, list *PriceList) error

	// CreateEntries persists new entries
	CreateEntries(ctx context.Context, entries []*Entry) error

	// CreateAssignments persists new associations
	CreateAssignments(ctx context.Context, assignments []*PartyAssignment) error

	// UpdateEntryPrice writes a price if the row still has the expected version.
	// Returns shared.ErrConcurrencyConflict when the version no longer matches.
	UpdateEntryPrice(ctx context.Context, update PriceUpdate) error

	// DeleteEntries soft-deletes entries
	DeleteEntries(ctx context.Context, ids []uuid.UUID, modifiedBy string, at time.Time) error

	// UpdateGeneration replaces the generation metadata of a list
	UpdateGeneration(ctx context.Context, priceListID uuid.UUID, meta GenerationMetadata, modifiedBy string) error
}

// Repository combines the read and write ports
type Repository interface {
	Reader
	EntryReader
	AssignmentReader
	Writer
}
