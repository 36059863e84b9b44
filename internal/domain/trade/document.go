package trade

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentHeader is the part of a trade document header the pricing engine reads
type DocumentHeader struct {
	ID              uuid.UUID
	Number          string
	BusinessPartyID *uuid.UUID
	// PriceListID is the list forced on every line of the document, if any
	PriceListID *uuid.UUID
	// IsStockIncrease is taken from the document type; purchases and receipts increase stock
	IsStockIncrease bool
	Date            time.Time
}

// Direction infers the price list direction from the stock-increase flag
func (h *DocumentHeader) Direction() pricelist.Direction {
	return pricelist.DirectionForStockIncrease(h.IsStockIncrease)
}

// DocumentLine is one product row of a trade document
type DocumentLine struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	ProductID  uuid.UUID
	UnitPrice  decimal.Decimal
	Quantity   decimal.Decimal
	Date       time.Time
}

// Occurrence converts the line into a historical price occurrence
func (l *DocumentLine) Occurrence() pricelist.Occurrence {
	return pricelist.Occurrence{
		DocumentID: l.DocumentID,
		Price:      l.UnitPrice,
		Quantity:   l.Quantity,
		Date:       l.Date,
	}
}

// PurchaseLineQuery selects stock-increase lines of one supplier in a closed window
type PurchaseLineQuery struct {
	SupplierID uuid.UUID
	From       time.Time
	To         time.Time
}
