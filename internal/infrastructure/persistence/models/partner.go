package models

import (
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/google/uuid"
)

// BusinessPartyModel is the persistence model for a customer or supplier
type BusinessPartyModel struct {
	BaseModel
	Code                        string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                        string                    `gorm:"type:varchar(200);not null"`
	DefaultPriceApplicationMode pricelist.ApplicationMode `gorm:"type:varchar(30);not null;default:'automatic'"`
	ForcedPriceListID           *uuid.UUID                `gorm:"type:uuid"`
	DefaultSalesPriceListID     *uuid.UUID                `gorm:"type:uuid"`
	DefaultPurchasePriceListID  *uuid.UUID                `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BusinessPartyModel) TableName() string {
	return "business_parties"
}

// ToDomain converts the persistence model to a domain BusinessParty
func (m *BusinessPartyModel) ToDomain() *partner.BusinessParty {
	return &partner.BusinessParty{
		BaseEntity:                  m.entity(),
		Code:                        m.Code,
		Name:                        m.Name,
		DefaultPriceApplicationMode: m.DefaultPriceApplicationMode,
		ForcedPriceListID:           m.ForcedPriceListID,
		DefaultSalesPriceListID:     m.DefaultSalesPriceListID,
		DefaultPurchasePriceListID:  m.DefaultPurchasePriceListID,
	}
}

// BusinessPartyModelFromDomain creates a persistence model from a domain BusinessParty
func BusinessPartyModelFromDomain(p *partner.BusinessParty) *BusinessPartyModel {
	m := &BusinessPartyModel{
		Code:                        p.Code,
		Name:                        p.Name,
		DefaultPriceApplicationMode: p.DefaultPriceApplicationMode,
		ForcedPriceListID:           p.ForcedPriceListID,
		DefaultSalesPriceListID:     p.DefaultSalesPriceListID,
		DefaultPurchasePriceListID:  p.DefaultPurchasePriceListID,
	}
	m.BaseModel = baseModelOf(p.BaseEntity)
	return m
}
