package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/erp/pricing/internal/infrastructure/persistence/snapshot"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleStore(t *testing.T) (*snapshot.Store, *catalog.Product, *pricelist.PriceList) {
	t.Helper()
	store := snapshot.New()

	product, err := catalog.NewProduct("nut-m8", "M8 nut", "pcs")
	require.NoError(t, err)
	store.AddProduct(*product)

	box, err := catalog.NewProductUnit(product.ID, "box", "Box of 100", decimal.NewFromInt(100))
	require.NoError(t, err)
	store.AddProductUnit(*box)

	party, err := partner.NewBusinessParty("fastenco", "Fasten Co")
	require.NoError(t, err)
	store.AddBusinessParty(*party)

	list, err := pricelist.NewPriceList("SUP-FAST", "Fasten Co purchase", pricelist.TypePurchase, pricelist.DirectionInput, 1)
	require.NoError(t, err)
	list.Status = pricelist.StatusActive
	store.AddPriceList(*list)

	entry, err := pricelist.NewEntry(list.ID, product.ID, decimal.RequireFromString("0.12"), valueobject.DefaultCurrency)
	require.NoError(t, err)
	store.AddEntry(*entry)
	store.AddAssignment(*pricelist.NewPartyAssignment(list.ID, party.ID))

	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	header := trade.DocumentHeader{ID: uuid.New(), Number: "PO-77", BusinessPartyID: &party.ID, IsStockIncrease: true, Date: at}
	store.AddDocument(header, trade.DocumentLine{
		ID: uuid.New(), ProductID: product.ID,
		UnitPrice: decimal.RequireFromString("0.11"), Quantity: decimal.NewFromInt(500), Date: at,
	})
	return store, product, list
}

func TestImportSnapshot(t *testing.T) {
	db := setupTestDB(t)
	store, product, list := sampleStore(t)
	ctx := context.Background()

	stats, err := ImportSnapshot(ctx, db, store.Contents(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ImportStats{
		Products: 1, ProductUnits: 1, BusinessParties: 1, PriceLists: 1,
		Entries: 1, Assignments: 1, Documents: 1,
	}, stats)

	stores := NewStores(db)
	gotProduct, err := stores.Products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Code, gotProduct.Code)

	active, err := stores.PriceLists.FindActiveByDirection(ctx, pricelist.DirectionInput)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, list.ID, active[0].ID)

	entries, err := stores.PriceLists.FindByListAndProduct(ctx, list.ID, product.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, decimal.RequireFromString("0.12").Equal(entries[0].Price))

	assignments, err := stores.PriceLists.FindByListIDs(ctx, []uuid.UUID{list.ID})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestImportSnapshot_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	store, product, _ := sampleStore(t)
	ctx := context.Background()

	// a second list with the same code violates the unique constraint
	dup, err := pricelist.NewPriceList("SUP-FAST", "Duplicate", pricelist.TypePurchase, pricelist.DirectionInput, 2)
	require.NoError(t, err)
	store.AddPriceList(*dup)

	_, err = ImportSnapshot(ctx, db, store.Contents(), zap.NewNop())
	require.Error(t, err)

	_, err = NewGormProductRepository(db).FindByID(ctx, product.ID)
	assert.Error(t, err, "products written before the failure are rolled back")
}
