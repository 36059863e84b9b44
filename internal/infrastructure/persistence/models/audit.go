package models

import (
	"time"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditEntryModel is the persistence model for an audit log row
type AuditEntryModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	EntityType string    `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	Action     string    `gorm:"type:varchar(50);not null"`
	OldSummary string    `gorm:"type:text"`
	NewSummary string    `gorm:"type:text"`
	Actor      string    `gorm:"type:varchar(100);not null"`
	Timestamp  time.Time `gorm:"column:recorded_at;not null"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "pricing_audit_log"
}

// ToDomain converts the persistence model to a domain audit Entry
func (m *AuditEntryModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:         m.ID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		OldSummary: m.OldSummary,
		NewSummary: m.NewSummary,
		Actor:      m.Actor,
		Timestamp:  m.Timestamp,
	}
}

// AuditEntryModelFromDomain creates a persistence model from a domain audit Entry
func AuditEntryModelFromDomain(e audit.Entry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		OldSummary: e.OldSummary,
		NewSummary: e.NewSummary,
		Actor:      e.Actor,
		Timestamp:  e.Timestamp,
	}
}
