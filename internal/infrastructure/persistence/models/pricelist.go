package models

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceListModel is the persistence model for the PriceList aggregate root.
// Generation metadata is flattened into gen_* columns; GenStrategy is empty
// for lists that were not generated.
type PriceListModel struct {
	AggregateModel
	Code        string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string              `gorm:"type:varchar(200);not null"`
	Description string              `gorm:"type:text"`
	ListType    pricelist.ListType  `gorm:"column:list_type;type:varchar(20);not null"`
	Direction   pricelist.Direction `gorm:"type:varchar(10);not null;index"`
	Status      pricelist.Status    `gorm:"type:varchar(20);not null;default:'draft';index"`
	Priority    int                 `gorm:"not null;default:0"`
	IsDefault   bool                `gorm:"not null;default:false"`
	Currency    string              `gorm:"type:varchar(3);not null;default:'EUR'"`
	ValidFrom   *time.Time
	ValidTo     *time.Time
	EventID     *uuid.UUID `gorm:"type:uuid;index"`
	IsDeleted   bool       `gorm:"not null;default:false"`
	CreatedBy   string     `gorm:"type:varchar(100)"`
	ModifiedBy  string     `gorm:"type:varchar(100)"`

	GenStrategy         string           `gorm:"column:gen_strategy;type:varchar(30)"`
	GenSupplierID       *uuid.UUID       `gorm:"column:gen_supplier_id;type:uuid"`
	GenSourceFrom       *time.Time       `gorm:"column:gen_source_from"`
	GenSourceTo         *time.Time       `gorm:"column:gen_source_to"`
	GenDocumentCount    int              `gorm:"column:gen_document_count;not null;default:0"`
	GenMarkupPercentage *decimal.Decimal `gorm:"column:gen_markup_percentage;type:decimal(9,4)"`
	GenRounding         string           `gorm:"column:gen_rounding;type:varchar(30)"`
	GenGeneratedAt      *time.Time       `gorm:"column:gen_generated_at"`
}

// TableName returns the table name for GORM
func (PriceListModel) TableName() string {
	return "price_lists"
}

// ToDomain converts the persistence model to a domain PriceList
func (m *PriceListModel) ToDomain() *pricelist.PriceList {
	list := &pricelist.PriceList{
		BaseAggregateRoot: m.aggregate(),
		Code:              m.Code,
		Name:              m.Name,
		Description:       m.Description,
		Type:              m.ListType,
		Direction:         m.Direction,
		Status:            m.Status,
		Priority:          m.Priority,
		IsDefault:         m.IsDefault,
		Currency:          valueobject.Currency(m.Currency),
		ValidFrom:         m.ValidFrom,
		ValidTo:           m.ValidTo,
		EventID:           m.EventID,
		IsDeleted:         m.IsDeleted,
		CreatedBy:         m.CreatedBy,
		ModifiedBy:        m.ModifiedBy,
	}
	if m.GenStrategy != "" {
		meta := pricelist.GenerationMetadata{
			Strategy:      pricelist.GenerationStrategy(m.GenStrategy),
			DocumentCount: m.GenDocumentCount,
			Rounding:      pricelist.RoundingPolicy(m.GenRounding),
		}
		if m.GenSupplierID != nil {
			meta.SupplierID = *m.GenSupplierID
		}
		if m.GenSourceFrom != nil {
			meta.SourceFrom = *m.GenSourceFrom
		}
		if m.GenSourceTo != nil {
			meta.SourceTo = *m.GenSourceTo
		}
		if m.GenMarkupPercentage != nil {
			meta.MarkupPercentage = *m.GenMarkupPercentage
		}
		if m.GenGeneratedAt != nil {
			meta.GeneratedAt = *m.GenGeneratedAt
		}
		list.Generation = &meta
	}
	return list
}

// FromDomain populates the persistence model from a domain PriceList
func (m *PriceListModel) FromDomain(l *pricelist.PriceList) {
	m.AggregateModel = aggregateModelOf(l.BaseAggregateRoot)
	m.Code = l.Code
	m.Name = l.Name
	m.Description = l.Description
	m.ListType = l.Type
	m.Direction = l.Direction
	m.Status = l.Status
	m.Priority = l.Priority
	m.IsDefault = l.IsDefault
	m.Currency = string(l.Currency)
	m.ValidFrom = l.ValidFrom
	m.ValidTo = l.ValidTo
	m.EventID = l.EventID
	m.IsDeleted = l.IsDeleted
	m.CreatedBy = l.CreatedBy
	m.ModifiedBy = l.ModifiedBy
	m.SetGeneration(l.Generation)
}

// SetGeneration writes the flattened generation columns; nil clears them
func (m *PriceListModel) SetGeneration(meta *pricelist.GenerationMetadata) {
	if meta == nil {
		m.GenStrategy = ""
		m.GenSupplierID = nil
		m.GenSourceFrom = nil
		m.GenSourceTo = nil
		m.GenDocumentCount = 0
		m.GenMarkupPercentage = nil
		m.GenRounding = ""
		m.GenGeneratedAt = nil
		return
	}
	supplier := meta.SupplierID
	from, to, at := meta.SourceFrom, meta.SourceTo, meta.GeneratedAt
	markup := meta.MarkupPercentage
	m.GenStrategy = string(meta.Strategy)
	m.GenSupplierID = &supplier
	m.GenSourceFrom = &from
	m.GenSourceTo = &to
	m.GenDocumentCount = meta.DocumentCount
	m.GenMarkupPercentage = &markup
	m.GenRounding = string(meta.Rounding)
	m.GenGeneratedAt = &at
}

// PriceListModelFromDomain creates a persistence model from a domain PriceList
func PriceListModelFromDomain(l *pricelist.PriceList) *PriceListModel {
	m := &PriceListModel{}
	m.FromDomain(l)
	return m
}

// PriceListEntryModel is the persistence model for one product price in a list
type PriceListEntryModel struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primary_key"`
	PriceListID          uuid.UUID        `gorm:"type:uuid;not null;index:idx_entry_list_product,priority:1"`
	ProductID            uuid.UUID        `gorm:"type:uuid;not null;index:idx_entry_list_product,priority:2;index"`
	Price                decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Currency             string           `gorm:"type:varchar(3);not null;default:'EUR'"`
	UnitCode             string           `gorm:"type:varchar(20)"`
	MinQuantity          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	MaxQuantity          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	IsEditable           bool             `gorm:"not null"`
	IsDiscountable       bool             `gorm:"not null"`
	Score                int              `gorm:"not null;default:0"`
	LeadTimeDays         *int             `gorm:""`
	MinimumOrderQuantity *decimal.Decimal `gorm:"type:decimal(18,4)"`
	SupplierProductCode  string           `gorm:"type:varchar(100)"`
	Version              int              `gorm:"not null;default:1"`
	IsDeleted            bool             `gorm:"not null;default:false"`
	ModifiedBy           string           `gorm:"type:varchar(100)"`
	CreatedAt            time.Time        `gorm:"not null"`
	UpdatedAt            time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PriceListEntryModel) TableName() string {
	return "price_list_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *PriceListEntryModel) ToDomain() pricelist.Entry {
	return pricelist.Entry{
		ID:                   m.ID,
		PriceListID:          m.PriceListID,
		ProductID:            m.ProductID,
		Price:                m.Price,
		Currency:             valueobject.Currency(m.Currency),
		UnitCode:             m.UnitCode,
		MinQuantity:          m.MinQuantity,
		MaxQuantity:          m.MaxQuantity,
		IsEditable:           m.IsEditable,
		IsDiscountable:       m.IsDiscountable,
		Score:                m.Score,
		LeadTimeDays:         m.LeadTimeDays,
		MinimumOrderQuantity: m.MinimumOrderQuantity,
		SupplierProductCode:  m.SupplierProductCode,
		Version:              m.Version,
		IsDeleted:            m.IsDeleted,
		ModifiedBy:           m.ModifiedBy,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// PriceListEntryModelFromDomain creates a persistence model from a domain Entry
func PriceListEntryModelFromDomain(e *pricelist.Entry) *PriceListEntryModel {
	return &PriceListEntryModel{
		ID:                   e.ID,
		PriceListID:          e.PriceListID,
		ProductID:            e.ProductID,
		Price:                e.Price,
		Currency:             string(e.Currency),
		UnitCode:             e.UnitCode,
		MinQuantity:          e.MinQuantity,
		MaxQuantity:          e.MaxQuantity,
		IsEditable:           e.IsEditable,
		IsDiscountable:       e.IsDiscountable,
		Score:                e.Score,
		LeadTimeDays:         e.LeadTimeDays,
		MinimumOrderQuantity: e.MinimumOrderQuantity,
		SupplierProductCode:  e.SupplierProductCode,
		Version:              e.Version,
		IsDeleted:            e.IsDeleted,
		ModifiedBy:           e.ModifiedBy,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// PartyAssignmentModel is the persistence model for a business party association
type PartyAssignmentModel struct {
	ID                       uuid.UUID        `gorm:"type:uuid;primary_key"`
	PriceListID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	BusinessPartyID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	PriorityOverride         *int             `gorm:""`
	GlobalDiscountPercentage *decimal.Decimal `gorm:"type:decimal(9,4)"`
	ValidFrom                *time.Time
	ValidTo                  *time.Time
	IsPrimary                bool      `gorm:"not null;default:false"`
	IsDeleted                bool      `gorm:"not null;default:false"`
	CreatedAt                time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PartyAssignmentModel) TableName() string {
	return "price_list_business_parties"
}

// ToDomain converts the persistence model to a domain PartyAssignment
func (m *PartyAssignmentModel) ToDomain() pricelist.PartyAssignment {
	return pricelist.PartyAssignment{
		ID:                       m.ID,
		PriceListID:              m.PriceListID,
		BusinessPartyID:          m.BusinessPartyID,
		PriorityOverride:         m.PriorityOverride,
		GlobalDiscountPercentage: m.GlobalDiscountPercentage,
		ValidFrom:                m.ValidFrom,
		ValidTo:                  m.ValidTo,
		IsPrimary:                m.IsPrimary,
		IsDeleted:                m.IsDeleted,
		CreatedAt:                m.CreatedAt,
	}
}

// PartyAssignmentModelFromDomain creates a persistence model from a domain PartyAssignment
func PartyAssignmentModelFromDomain(a *pricelist.PartyAssignment) *PartyAssignmentModel {
	return &PartyAssignmentModel{
		ID:                       a.ID,
		PriceListID:              a.PriceListID,
		BusinessPartyID:          a.BusinessPartyID,
		PriorityOverride:         a.PriorityOverride,
		GlobalDiscountPercentage: a.GlobalDiscountPercentage,
		ValidFrom:                a.ValidFrom,
		ValidTo:                  a.ValidTo,
		IsPrimary:                a.IsPrimary,
		IsDeleted:                a.IsDeleted,
		CreatedAt:                a.CreatedAt,
	}
}
