package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("sku-001", "Widget", "pcs")
	require.NoError(t, err)
	assert.Equal(t, "SKU-001", p.Code)
	assert.True(t, p.IsActive())
	assert.NotEqual(t, uuid.Nil, p.ID)

	_, err = NewProduct("", "Widget", "pcs")
	assert.Error(t, err)
	_, err = NewProduct("SKU", "", "pcs")
	assert.Error(t, err)
	_, err = NewProduct("SKU", "Widget", " ")
	assert.Error(t, err)
}

func TestProduct_Filters(t *testing.T) {
	category := uuid.New()
	brand := uuid.New()
	p := &Product{CategoryID: &category, BrandID: &brand}

	assert.True(t, p.InCategory([]uuid.UUID{uuid.New(), category}))
	assert.False(t, p.InCategory([]uuid.UUID{uuid.New()}))
	assert.True(t, p.HasBrand([]uuid.UUID{brand}))
	assert.False(t, (&Product{}).HasBrand([]uuid.UUID{brand}))
}

func TestProduct_FallbackPrice(t *testing.T) {
	price, ok := (&Product{}).FallbackPrice()
	assert.False(t, ok)
	assert.True(t, price.IsZero())

	d := decimal.RequireFromString("4.50")
	price, ok = (&Product{DefaultPrice: &d}).FallbackPrice()
	assert.True(t, ok)
	assert.True(t, d.Equal(price))
}

func TestNewProductUnit(t *testing.T) {
	u, err := NewProductUnit(uuid.New(), "BOX", "Box", decimal.NewFromInt(24))
	require.NoError(t, err)
	assert.Equal(t, "BOX", u.UnitCode)

	_, err = NewProductUnit(uuid.New(), "BOX", "Box", decimal.Zero)
	assert.Error(t, err)
	_, err = NewProductUnit(uuid.New(), "", "Box", decimal.NewFromInt(1))
	assert.Error(t, err)
}
