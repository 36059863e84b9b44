package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDocumentRepository implements trade.DocumentReader using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindHeaderByID finds a document header by ID
func (r *GormDocumentRepository) FindHeaderByID(ctx context.Context, id uuid.UUID) (*trade.DocumentHeader, error) {
	var model models.DocumentHeaderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPurchaseLines returns the lines of the supplier's stock-increase documents
// dated inside [From, To], oldest first
func (r *GormDocumentRepository) FindPurchaseLines(ctx context.Context, query trade.PurchaseLineQuery) ([]trade.DocumentLine, error) {
	var lineModels []models.DocumentLineModel
	err := r.db.WithContext(ctx).
		Table("document_lines").
		Select("document_lines.*").
		Joins("JOIN document_headers ON document_headers.id = document_lines.document_id").
		Where("document_headers.business_party_id = ? AND document_headers.is_stock_increase = ?", query.SupplierID, true).
		Where("document_lines.line_date >= ? AND document_lines.line_date <= ?", query.From, query.To).
		Order("document_lines.line_date ASC, document_lines.id ASC").
		Find(&lineModels).Error
	if err != nil {
		return nil, err
	}
	lines := make([]trade.DocumentLine, len(lineModels))
	for i := range lineModels {
		lines[i] = lineModels[i].ToDomain()
	}
	return lines, nil
}

// SaveDocument creates or updates a header and its lines in one transaction
func (r *GormDocumentRepository) SaveDocument(ctx context.Context, header *trade.DocumentHeader, lines []trade.DocumentLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.DocumentHeaderModelFromDomain(header)).Error; err != nil {
			return err
		}
		for i := range lines {
			if err := tx.Save(models.DocumentLineModelFromDomain(&lines[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
