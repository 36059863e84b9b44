package models

import (
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	Code         string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string                `gorm:"type:varchar(200);not null"`
	CategoryID   *uuid.UUID            `gorm:"type:uuid;index"`
	BrandID      *uuid.UUID            `gorm:"type:uuid;index"`
	Unit         string                `gorm:"type:varchar(20);not null"`
	DefaultPrice *decimal.Decimal      `gorm:"type:decimal(18,4)"`
	Status       catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:   m.entity(),
		Code:         m.Code,
		Name:         m.Name,
		CategoryID:   m.CategoryID,
		BrandID:      m.BrandID,
		Unit:         m.Unit,
		DefaultPrice: m.DefaultPrice,
		Status:       m.Status,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.BaseModel = baseModelOf(p.BaseEntity)
	m.Code = p.Code
	m.Name = p.Name
	m.CategoryID = p.CategoryID
	m.BrandID = p.BrandID
	m.Unit = p.Unit
	m.DefaultPrice = p.DefaultPrice
	m.Status = p.Status
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductUnitModel is the persistence model for an alternate product unit
type ProductUnitModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_unit_code,priority:1"`
	UnitCode       string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_product_unit_code,priority:2"`
	UnitName       string          `gorm:"type:varchar(50);not null"`
	ConversionRate decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (ProductUnitModel) TableName() string {
	return "product_units"
}

// ToDomain converts the persistence model to a domain ProductUnit
func (m *ProductUnitModel) ToDomain() *catalog.ProductUnit {
	return &catalog.ProductUnit{
		ID:             m.ID,
		ProductID:      m.ProductID,
		UnitCode:       m.UnitCode,
		UnitName:       m.UnitName,
		ConversionRate: m.ConversionRate,
	}
}

// ProductUnitModelFromDomain creates a persistence model from a domain ProductUnit
func ProductUnitModelFromDomain(u *catalog.ProductUnit) *ProductUnitModel {
	return &ProductUnitModel{
		ID:             u.ID,
		ProductID:      u.ProductID,
		UnitCode:       u.UnitCode,
		UnitName:       u.UnitName,
		ConversionRate: u.ConversionRate,
	}
}
