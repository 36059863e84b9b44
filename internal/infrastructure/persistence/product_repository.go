package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductReader using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productModels).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

// GormProductUnitRepository implements catalog.ProductUnitReader using GORM
type GormProductUnitRepository struct {
	db *gorm.DB
}

// NewGormProductUnitRepository creates a new GormProductUnitRepository
func NewGormProductUnitRepository(db *gorm.DB) *GormProductUnitRepository {
	return &GormProductUnitRepository{db: db}
}

// FindByProductIDAndCode finds a specific unit for a product by code
func (r *GormProductUnitRepository) FindByProductIDAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*catalog.ProductUnit, error) {
	var model models.ProductUnitModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND unit_code = ?", productID, unitCode).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a product unit
func (r *GormProductUnitRepository) Save(ctx context.Context, unit *catalog.ProductUnit) error {
	return r.db.WithContext(ctx).Save(models.ProductUnitModelFromDomain(unit)).Error
}
