package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository(t *testing.T) {
	db := setupTestDB(t)
	products := NewGormProductRepository(db)
	units := NewGormProductUnitRepository(db)
	ctx := context.Background()

	product, err := catalog.NewProduct("bolt-m8", "M8 bolt", "pcs")
	require.NoError(t, err)
	category := uuid.New()
	price := decimal.RequireFromString("0.35")
	product.CategoryID = &category
	product.DefaultPrice = &price
	require.NoError(t, products.Save(ctx, product))

	box, err := catalog.NewProductUnit(product.ID, "box", "Box of 50", decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, units.Save(ctx, box))

	t.Run("finds product", func(t *testing.T) {
		got, err := products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.Code, got.Code)
		assert.Equal(t, catalog.ProductStatusActive, got.Status)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, category, *got.CategoryID)
		require.NotNil(t, got.DefaultPrice)
		assert.True(t, price.Equal(*got.DefaultPrice))
		assert.Nil(t, got.BrandID)
	})

	t.Run("missing product", func(t *testing.T) {
		_, err := products.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		got, err := products.FindByIDs(ctx, []uuid.UUID{product.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("finds unit by code", func(t *testing.T) {
		got, err := units.FindByProductIDAndCode(ctx, product.ID, "box")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(50).Equal(got.ConversionRate))

		_, err = units.FindByProductIDAndCode(ctx, product.ID, "pallet")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormBusinessPartyRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBusinessPartyRepository(db)
	ctx := context.Background()

	party, err := partner.NewBusinessParty("acme", "Acme Supplies")
	require.NoError(t, err)
	forced := uuid.New()
	party.DefaultPriceApplicationMode = pricelist.ModeForcedPriceList
	party.ForcedPriceListID = &forced
	require.NoError(t, repo.Save(ctx, party))

	got, err := repo.FindByID(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, pricelist.ModeForcedPriceList, got.DefaultPriceApplicationMode)
	require.NotNil(t, got.ForcedPriceListID)
	assert.Equal(t, forced, *got.ForcedPriceListID)
	assert.Nil(t, got.DefaultSalesPriceListID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := repo.FindByIDs(ctx, []uuid.UUID{party.ID})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGormDocumentRepository_FindPurchaseLines(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormDocumentRepository(db)
	ctx := context.Background()

	supplier := uuid.New()
	product := uuid.New()
	day := func(d int) time.Time { return time.Date(2026, 5, d, 9, 0, 0, 0, time.UTC) }

	document := func(number string, party uuid.UUID, stockIncrease bool, dates ...time.Time) {
		header := &trade.DocumentHeader{
			ID:              uuid.New(),
			Number:          number,
			BusinessPartyID: &party,
			IsStockIncrease: stockIncrease,
			Date:            dates[0],
		}
		lines := make([]trade.DocumentLine, len(dates))
		for i, at := range dates {
			lines[i] = trade.DocumentLine{
				ID:         uuid.New(),
				DocumentID: header.ID,
				ProductID:  product,
				UnitPrice:  decimal.NewFromInt(int64(10 + i)),
				Quantity:   decimal.NewFromInt(1),
				Date:       at,
			}
		}
		require.NoError(t, repo.SaveDocument(ctx, header, lines))
	}

	document("PO-2", supplier, true, day(20))
	document("PO-1", supplier, true, day(10), day(12))
	document("PO-0", supplier, true, day(1))
	document("SO-1", supplier, false, day(15))
	document("PO-X", uuid.New(), true, day(15))

	got, err := repo.FindPurchaseLines(ctx, trade.PurchaseLineQuery{
		SupplierID: supplier,
		From:       day(5),
		To:         day(20),
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.WithinDuration(t, day(10), got[0].Date, time.Second)
	assert.WithinDuration(t, day(12), got[1].Date, time.Second)
	assert.WithinDuration(t, day(20), got[2].Date, time.Second)

	header, err := repo.FindHeaderByID(ctx, got[0].DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "PO-1", header.Number)
	assert.True(t, header.IsStockIncrease)

	_, err = repo.FindHeaderByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
