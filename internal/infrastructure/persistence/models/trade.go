package models

import (
	"time"

	"github.com/erp/pricing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentHeaderModel is the read model of a trade document header
type DocumentHeaderModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	Number          string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	BusinessPartyID *uuid.UUID `gorm:"type:uuid;index"`
	PriceListID     *uuid.UUID `gorm:"type:uuid"`
	IsStockIncrease bool       `gorm:"not null;default:false"`
	DocumentDate    time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DocumentHeaderModel) TableName() string {
	return "document_headers"
}

// ToDomain converts the persistence model to a domain DocumentHeader
func (m *DocumentHeaderModel) ToDomain() *trade.DocumentHeader {
	return &trade.DocumentHeader{
		ID:              m.ID,
		Number:          m.Number,
		BusinessPartyID: m.BusinessPartyID,
		PriceListID:     m.PriceListID,
		IsStockIncrease: m.IsStockIncrease,
		Date:            m.DocumentDate,
	}
}

// DocumentHeaderModelFromDomain creates a persistence model from a domain DocumentHeader
func DocumentHeaderModelFromDomain(h *trade.DocumentHeader) *DocumentHeaderModel {
	return &DocumentHeaderModel{
		ID:              h.ID,
		Number:          h.Number,
		BusinessPartyID: h.BusinessPartyID,
		PriceListID:     h.PriceListID,
		IsStockIncrease: h.IsStockIncrease,
		DocumentDate:    h.Date,
	}
}

// DocumentLineModel is the read model of a trade document line
type DocumentLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineDate   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentLineModel) TableName() string {
	return "document_lines"
}

// ToDomain converts the persistence model to a domain DocumentLine
func (m *DocumentLineModel) ToDomain() trade.DocumentLine {
	return trade.DocumentLine{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		ProductID:  m.ProductID,
		UnitPrice:  m.UnitPrice,
		Quantity:   m.Quantity,
		Date:       m.LineDate,
	}
}

// DocumentLineModelFromDomain creates a persistence model from a domain DocumentLine
func DocumentLineModelFromDomain(l *trade.DocumentLine) *DocumentLineModel {
	return &DocumentLineModel{
		ID:         l.ID,
		DocumentID: l.DocumentID,
		ProductID:  l.ProductID,
		UnitPrice:  l.UnitPrice,
		Quantity:   l.Quantity,
		LineDate:   l.Date,
	}
}
