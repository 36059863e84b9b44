package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entity types recorded by the pricing engine
const (
	EntityPriceList = "price_list"
)

// Actions recorded by the pricing engine
const (
	ActionBulkTransform = "bulk_transform"
	ActionGenerate      = "generate_from_history"
	ActionRegenerate    = "update_from_history"
	ActionDuplicate     = "duplicate"
)

// Entry is one audit record of a committed mutation
type Entry struct {
	ID         uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Action     string
	OldSummary string
	NewSummary string
	Actor      string
	Timestamp  time.Time
}

// NewEntry creates an audit entry with a fresh identity
func NewEntry(entityType string, entityID uuid.UUID, action, actor string, at time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Actor:      actor,
		Timestamp:  at,
	}
}

// Sink receives audit entries. Implementations decide where entries are stored.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}
