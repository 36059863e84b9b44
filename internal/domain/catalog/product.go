package catalog

import (
	"strings"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product is the part of a catalog item the pricing engine reads
type Product struct {
	shared.BaseEntity
	Code       string
	Name       string
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	// Unit is the declared base unit (e.g., "pcs", "kg", "box")
	Unit string
	// DefaultPrice is the last-resort price when no list applies
	DefaultPrice *decimal.Decimal
	Status       ProductStatus
}

// NewProduct creates a new active product
func NewProduct(code, name, unit string) (*Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewInvalidInputError("INVALID_CODE", "Product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInputError("INVALID_NAME", "Product name cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewInvalidInputError("INVALID_UNIT", "Product unit cannot be empty")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Code:       strings.ToUpper(code),
		Name:       name,
		Unit:       unit,
		Status:     ProductStatusActive,
	}, nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// InCategory reports whether the product belongs to one of the categories
func (p *Product) InCategory(categoryIDs []uuid.UUID) bool {
	return p.CategoryID != nil && containsID(categoryIDs, *p.CategoryID)
}

// HasBrand reports whether the product carries one of the brands
func (p *Product) HasBrand(brandIDs []uuid.UUID) bool {
	return p.BrandID != nil && containsID(brandIDs, *p.BrandID)
}

// FallbackPrice returns DefaultPrice, or zero when absent
func (p *Product) FallbackPrice() (decimal.Decimal, bool) {
	if p.DefaultPrice == nil {
		return decimal.Zero, false
	}
	return *p.DefaultPrice, true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
