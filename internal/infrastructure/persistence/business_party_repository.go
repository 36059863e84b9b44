package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBusinessPartyRepository implements partner.Reader using GORM
type GormBusinessPartyRepository struct {
	db *gorm.DB
}

// NewGormBusinessPartyRepository creates a new GormBusinessPartyRepository
func NewGormBusinessPartyRepository(db *gorm.DB) *GormBusinessPartyRepository {
	return &GormBusinessPartyRepository{db: db}
}

// FindByID finds a business party by ID
func (r *GormBusinessPartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.BusinessParty, error) {
	var model models.BusinessPartyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple business parties by their IDs
func (r *GormBusinessPartyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.BusinessParty, error) {
	if len(ids) == 0 {
		return []partner.BusinessParty{}, nil
	}
	var partyModels []models.BusinessPartyModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&partyModels).Error; err != nil {
		return nil, err
	}
	parties := make([]partner.BusinessParty, len(partyModels))
	for i := range partyModels {
		parties[i] = *partyModels[i].ToDomain()
	}
	return parties, nil
}

// Save creates or updates a business party
func (r *GormBusinessPartyRepository) Save(ctx context.Context, party *partner.BusinessParty) error {
	return r.db.WithContext(ctx).Save(models.BusinessPartyModelFromDomain(party)).Error
}
