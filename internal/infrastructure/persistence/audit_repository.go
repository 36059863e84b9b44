package persistence

import (
	"context"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository stores audit entries in pricing_audit_log
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Record inserts one audit entry
func (r *GormAuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	return r.db.WithContext(ctx).Create(models.AuditEntryModelFromDomain(entry)).Error
}

// FindByEntity lists the audit trail of one entity, oldest first
func (r *GormAuditRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]audit.Entry, error) {
	var entryModels []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("recorded_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]audit.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

var _ audit.Sink = (*GormAuditRepository)(nil)
