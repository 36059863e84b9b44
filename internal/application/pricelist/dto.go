package pricelist

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryFilter selects entries of one list. Every non-empty criterion must match.
type EntryFilter struct {
	ProductIDs  []uuid.UUID      `json:"product_ids,omitempty"`
	CategoryIDs []uuid.UUID      `json:"category_ids,omitempty"`
	BrandIDs    []uuid.UUID      `json:"brand_ids,omitempty"`
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
}

func (f EntryFilter) needsProducts() bool {
	return len(f.CategoryIDs) > 0 || len(f.BrandIDs) > 0
}

// BulkTransformRequest applies one operation to the filtered entries of a list
type BulkTransformRequest struct {
	PriceListID uuid.UUID                `json:"price_list_id" validate:"required"`
	Operation   pricelist.PriceOperation `json:"operation" validate:"required"`
	Value       decimal.Decimal          `json:"value"`
	Rounding    pricelist.RoundingPolicy `json:"rounding,omitempty"`
	Filter      EntryFilter              `json:"filter"`
	Actor       string                   `json:"actor,omitempty" validate:"max=100"`
}

func (r BulkTransformRequest) transform() pricelist.Transform {
	return pricelist.Transform{Operation: r.Operation, Value: r.Value, Rounding: r.Rounding.OrNone()}
}

// BulkRow is one entry affected by a bulk transform
type BulkRow struct {
	EntryID   uuid.UUID       `json:"entry_id"`
	ProductID uuid.UUID       `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	// Clamped is set in previews when the computed price was negative and shown as zero
	Clamped bool `json:"clamped,omitempty"`
}

// BulkRowError is one entry that could not be written
type BulkRowError struct {
	EntryID   uuid.UUID `json:"entry_id,omitempty"`
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// Row error codes
const (
	RowNegativePrice       = "NEGATIVE_PRICE"
	RowConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// BulkResult is the outcome of a bulk transform preview or commit
type BulkResult struct {
	PriceListID  uuid.UUID                `json:"price_list_id"`
	Operation    pricelist.PriceOperation `json:"operation"`
	Committed    bool                     `json:"committed"`
	TotalMatched int                      `json:"total_matched"`
	UpdatedCount int                      `json:"updated_count"`
	FailedCount  int                      `json:"failed_count"`
	Rows         []BulkRow                `json:"rows"`
	Errors       []BulkRowError           `json:"errors"`
	Succeeded    bool                     `json:"succeeded"`
}

func (r *BulkResult) settle() {
	r.FailedCount = len(r.Errors)
	r.Succeeded = r.UpdatedCount > 0 || r.FailedCount == 0
}

// HistoricalWindow selects the supplier purchase history a generation is derived from
type HistoricalWindow struct {
	SupplierID       uuid.UUID                    `json:"supplier_id" validate:"required"`
	FromDate         time.Time                    `json:"from_date" validate:"required"`
	ToDate           time.Time                    `json:"to_date" validate:"required"`
	Strategy         pricelist.GenerationStrategy `json:"strategy" validate:"required"`
	MarkupPercentage decimal.Decimal              `json:"markup_percentage"`
	Rounding         pricelist.RoundingPolicy     `json:"rounding,omitempty"`
	CategoryIDs      []uuid.UUID                  `json:"category_ids,omitempty"`
	ActiveOnly       bool                         `json:"active_products_only"`
	// MinimumTotalQuantity drops products bought in smaller cumulative quantities
	MinimumTotalQuantity decimal.Decimal `json:"minimum_total_quantity"`
}

// GeneratedPrice is the computed price of one product
type GeneratedPrice struct {
	ProductID     uuid.UUID                   `json:"product_id"`
	ProductCode   string                      `json:"product_code"`
	ProductName   string                      `json:"product_name"`
	Summary       pricelist.OccurrenceSummary `json:"summary"`
	StrategyPrice decimal.Decimal             `json:"strategy_price"`
	FinalPrice    decimal.Decimal             `json:"final_price"`
}

// GenerationPreview lists the prices a generation would produce
type GenerationPreview struct {
	SupplierID    uuid.UUID                    `json:"supplier_id"`
	Strategy      pricelist.GenerationStrategy `json:"strategy"`
	DocumentCount int                          `json:"document_count"`
	Products      []GeneratedPrice             `json:"products"`
	// Skipped counts observed products excluded by filters or without usable data
	Skipped int `json:"skipped"`
}

// GenerateRequest creates a new purchase list from history
type GenerateRequest struct {
	HistoricalWindow
	Code        string            `json:"code" validate:"required,max=50"`
	Name        string            `json:"name" validate:"required,max=200"`
	Description string            `json:"description,omitempty" validate:"max=2000"`
	Priority    int               `json:"priority" validate:"gte=0"`
	Status      *pricelist.Status `json:"status,omitempty"`
	ValidFrom   *time.Time        `json:"valid_from,omitempty"`
	ValidTo     *time.Time        `json:"valid_to,omitempty"`
	Actor       string            `json:"actor,omitempty" validate:"max=100"`
}

// GenerateResult is the outcome of a generation
type GenerateResult struct {
	PriceList  *pricelist.PriceList `json:"price_list"`
	EntryCount int                  `json:"entry_count"`
	Skipped    int                  `json:"skipped"`
}

// UpdateFromHistoryRequest re-derives the prices of an existing generated list
type UpdateFromHistoryRequest struct {
	HistoricalWindow
	PriceListID            uuid.UUID `json:"price_list_id" validate:"required"`
	AddNewProducts         bool      `json:"add_new_products"`
	RemoveObsoleteProducts bool      `json:"remove_obsolete_products"`
	Actor                  string    `json:"actor,omitempty" validate:"max=100"`
}

// UpdateFromHistoryResult is the outcome of a regeneration
type UpdateFromHistoryResult struct {
	PriceListID uuid.UUID      `json:"price_list_id"`
	Unchanged   int            `json:"unchanged"`
	Updated     int            `json:"updated"`
	Added       int            `json:"added"`
	Removed     int            `json:"removed"`
	Skipped     int            `json:"skipped"`
	Warnings    []string       `json:"warnings,omitempty"`
	Errors      []BulkRowError `json:"errors,omitempty"`
}

// DuplicateRequest clones a list. Unset overrides default to the source list.
type DuplicateRequest struct {
	SourcePriceListID uuid.UUID            `json:"source_price_list_id" validate:"required"`
	Code              string               `json:"code" validate:"required,max=50"`
	Name              string               `json:"name" validate:"required,max=200"`
	Description       string               `json:"description,omitempty" validate:"max=2000"`
	Type              *pricelist.ListType  `json:"type,omitempty"`
	Direction         *pricelist.Direction `json:"direction,omitempty"`
	Status            *pricelist.Status    `json:"status,omitempty"`
	Priority          *int                 `json:"priority,omitempty" validate:"omitempty,gte=0"`
	ValidFrom         *time.Time           `json:"valid_from,omitempty"`
	ValidTo           *time.Time           `json:"valid_to,omitempty"`

	CopyEntries bool `json:"copy_entries"`
	// ActiveOnly, ProductIDs and CategoryIDs filter copied entries; ProductIDs and
	// CategoryIDs cannot be combined
	ActiveOnly       bool                     `json:"active_products_only"`
	ProductIDs       []uuid.UUID              `json:"product_ids,omitempty"`
	CategoryIDs      []uuid.UUID              `json:"category_ids,omitempty"`
	MarkupPercentage *decimal.Decimal         `json:"markup_percentage,omitempty"`
	Rounding         pricelist.RoundingPolicy `json:"rounding,omitempty"`

	CopyAssignments bool   `json:"copy_assignments"`
	Actor           string `json:"actor,omitempty" validate:"max=100"`
}

// DuplicateResult is the outcome of a duplication
type DuplicateResult struct {
	PriceList       *pricelist.PriceList `json:"price_list"`
	EntryCount      int                  `json:"entry_count"`
	AssignmentCount int                  `json:"assignment_count"`
	Warnings        []string             `json:"warnings,omitempty"`
	Errors          []BulkRowError       `json:"errors,omitempty"`
}
