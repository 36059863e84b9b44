package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRequest asks for the price of one product in an optional context
type PriceRequest struct {
	ProductID         uuid.UUID                  `json:"product_id" validate:"required"`
	Mode              *pricelist.ApplicationMode `json:"mode,omitempty"`
	BusinessPartyID   *uuid.UUID                 `json:"business_party_id,omitempty"`
	EventID           *uuid.UUID                 `json:"event_id,omitempty"`
	ForcedPriceListID *uuid.UUID                 `json:"forced_price_list_id,omitempty"`
	ManualPrice       *decimal.Decimal           `json:"manual_price,omitempty"`
	// Quantity defaults to 1
	Quantity decimal.Decimal `json:"quantity"`
	// EvaluationDate defaults to now
	EvaluationDate *time.Time `json:"evaluation_date,omitempty"`
	// UnitCode requests the price in a unit other than the entry's unit
	UnitCode string `json:"unit_code,omitempty" validate:"max=20"`
}

// CandidateSummary describes one applicable price list other than, or including, the winner
type CandidateSummary struct {
	PriceListID   uuid.UUID       `json:"price_list_id"`
	Name          string          `json:"name"`
	Priority      int             `json:"priority"`
	Price         decimal.Decimal `json:"price"`
	PartyAssigned bool            `json:"party_assigned"`
	IsDefault     bool            `json:"is_default"`
}

// PriceResolution is the outcome of a price request. SearchPath is always populated.
type PriceResolution struct {
	ProductID          uuid.UUID                 `json:"product_id"`
	Mode               pricelist.ApplicationMode `json:"mode"`
	Source             pricelist.PriceSource     `json:"source,omitempty"`
	Price              decimal.Decimal           `json:"price"`
	OriginalPrice      decimal.Decimal           `json:"original_price"`
	Currency           valueobject.Currency      `json:"currency"`
	PriceListID        *uuid.UUID                `json:"price_list_id,omitempty"`
	PriceListName      string                    `json:"price_list_name,omitempty"`
	Priority           *int                      `json:"priority,omitempty"`
	DiscountPercentage decimal.Decimal           `json:"discount_percentage"`
	UnitCode           string                    `json:"unit_code,omitempty"`
	ConversionRate     decimal.Decimal           `json:"conversion_rate"`
	IsFallback         bool                      `json:"is_fallback"`
	Candidates         []CandidateSummary        `json:"candidates,omitempty"`
	Warnings           []string                  `json:"warnings,omitempty"`
	SearchPath         []string                  `json:"search_path"`
}

// WithMode returns a copy relabelled with another mode; the receiver is not modified
func (r PriceResolution) WithMode(mode pricelist.ApplicationMode) PriceResolution {
	out := r.clone()
	out.Mode = mode
	return out
}

// WithSteps returns a copy with extra search-path steps appended
func (r PriceResolution) WithSteps(steps ...string) PriceResolution {
	out := r.clone()
	out.SearchPath = append(out.SearchPath, steps...)
	return out
}

// WithWarnings returns a copy with extra warnings appended
func (r PriceResolution) WithWarnings(warnings ...string) PriceResolution {
	out := r.clone()
	out.Warnings = append(out.Warnings, warnings...)
	return out
}

func (r PriceResolution) clone() PriceResolution {
	out := r
	out.Candidates = append([]CandidateSummary(nil), r.Candidates...)
	out.Warnings = append([]string(nil), r.Warnings...)
	out.SearchPath = append([]string(nil), r.SearchPath...)
	return out
}

// CascadeRequest asks for a price from a document context
type CascadeRequest struct {
	ProductID         uuid.UUID            `json:"product_id" validate:"required"`
	ForcedPriceListID *uuid.UUID           `json:"forced_price_list_id,omitempty"`
	DocumentID        *uuid.UUID           `json:"document_id,omitempty"`
	BusinessPartyID   *uuid.UUID           `json:"business_party_id,omitempty"`
	Direction         *pricelist.Direction `json:"direction,omitempty"`
	EvaluationDate    *time.Time           `json:"evaluation_date,omitempty"`
}

// ComparisonRequest asks for supplier offers of one product
type ComparisonRequest struct {
	ProductID      uuid.UUID       `json:"product_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	EvaluationDate *time.Time      `json:"evaluation_date,omitempty"`
}

// SupplierOffer is one ranked row of a purchase comparison
type SupplierOffer struct {
	PriceListID          uuid.UUID            `json:"price_list_id"`
	PriceListName        string               `json:"price_list_name"`
	SupplierID           uuid.UUID            `json:"supplier_id"`
	SupplierName         string               `json:"supplier_name"`
	BasePrice            decimal.Decimal      `json:"base_price"`
	EffectivePrice       decimal.Decimal      `json:"effective_price"`
	DiscountPercentage   decimal.Decimal      `json:"discount_percentage"`
	Currency             valueobject.Currency `json:"currency"`
	LeadTimeDays         *int                 `json:"lead_time_days,omitempty"`
	MinimumOrderQuantity *decimal.Decimal     `json:"minimum_order_quantity,omitempty"`
	SupplierProductCode  string               `json:"supplier_product_code,omitempty"`
	IsPrimary            bool                 `json:"is_primary"`
}

// ValidationReport is the precedence analysis of one event
type ValidationReport struct {
	EventID            uuid.UUID         `json:"event_id"`
	IsValid            bool              `json:"is_valid"`
	ListCount          int               `json:"list_count"`
	ActiveCount        int               `json:"active_count"`
	RecommendedDefault *uuid.UUID        `json:"recommended_default,omitempty"`
	Issues             []ValidationIssue `json:"issues"`
}

// ValidationIssue is one finding of a ValidationReport
type ValidationIssue struct {
	Severity     pricelist.Severity `json:"severity"`
	Code         string             `json:"code"`
	Message      string             `json:"message"`
	PriceListIDs []uuid.UUID        `json:"price_list_ids,omitempty"`
}

var (
	decimal0 = decimal.Zero
	decimal1 = decimal.NewFromInt(1)
)

func (r PriceResolution) moneyOf(amount decimal.Decimal) valueobject.Money {
	return valueobject.MustNewMoney(amount, r.Currency.OrDefault())
}
