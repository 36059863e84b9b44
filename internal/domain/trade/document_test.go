package trade

import (
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDocumentHeader_Direction(t *testing.T) {
	assert.Equal(t, pricelist.DirectionInput, (&DocumentHeader{IsStockIncrease: true}).Direction())
	assert.Equal(t, pricelist.DirectionOutput, (&DocumentHeader{}).Direction())
}

func TestDocumentLine_Occurrence(t *testing.T) {
	line := DocumentLine{
		DocumentID: uuid.New(),
		ProductID:  uuid.New(),
		UnitPrice:  decimal.RequireFromString("3.20"),
		Quantity:   decimal.NewFromInt(5),
		Date:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	o := line.Occurrence()

	assert.Equal(t, line.DocumentID, o.DocumentID)
	assert.True(t, line.UnitPrice.Equal(o.Price))
	assert.True(t, line.Quantity.Equal(o.Quantity))
	assert.Equal(t, line.Date, o.Date)
}
