package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var repoNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestList(t *testing.T, code string, direction pricelist.Direction, priority int) *pricelist.PriceList {
	listType := pricelist.TypeSales
	if direction == pricelist.DirectionInput {
		listType = pricelist.TypePurchase
	}
	list, err := pricelist.NewPriceList(code, code+" list", listType, direction, priority)
	require.NoError(t, err)
	list.Status = pricelist.StatusActive
	list.CreatedAt = repoNow
	list.UpdatedAt = repoNow
	return list
}

func newTestEntry(t *testing.T, listID, productID uuid.UUID, price string) *pricelist.Entry {
	e, err := pricelist.NewEntry(listID, productID, decimal.RequireFromString(price), "EUR")
	require.NoError(t, err)
	e.CreatedAt = repoNow
	e.UpdatedAt = repoNow
	return e
}

func TestGormPriceListRepository_Lists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPriceListRepository(db)
	ctx := context.Background()

	event := uuid.New()
	from := repoNow.AddDate(0, -1, 0)
	retail := newTestList(t, "retail", pricelist.DirectionOutput, 5)
	retail.EventID = &event
	require.NoError(t, retail.SetValidity(&from, nil))
	promo := newTestList(t, "promo", pricelist.DirectionOutput, 1)
	promo.EventID = &event
	draft := newTestList(t, "draft", pricelist.DirectionOutput, 0)
	draft.Status = pricelist.StatusDraft
	buying := newTestList(t, "buying", pricelist.DirectionInput, 0)
	deleted := newTestList(t, "gone", pricelist.DirectionOutput, 0)
	deleted.IsDeleted = true

	for _, l := range []*pricelist.PriceList{retail, promo, draft, buying, deleted} {
		require.NoError(t, repo.CreateList(ctx, l))
	}

	t.Run("finds by id with validity", func(t *testing.T) {
		got, err := repo.FindByID(ctx, retail.ID)
		require.NoError(t, err)
		assert.Equal(t, "RETAIL", got.Code)
		assert.Equal(t, pricelist.TypeSales, got.Type)
		assert.Equal(t, 1, got.Version)
		require.NotNil(t, got.ValidFrom)
		assert.WithinDuration(t, from, *got.ValidFrom, time.Second)
		assert.Nil(t, got.ValidTo)
		assert.Nil(t, got.Generation)
	})

	t.Run("soft-deleted lists are not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, deleted.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		got, err := repo.FindByIDs(ctx, []uuid.UUID{deleted.ID, promo.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, promo.ID, got[0].ID)
	})

	t.Run("finds by event", func(t *testing.T) {
		got, err := repo.FindByEventID(ctx, event)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("active lists of a direction by priority", func(t *testing.T) {
		got, err := repo.FindActiveByDirection(ctx, pricelist.DirectionOutput)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, promo.ID, got[0].ID)
		assert.Equal(t, retail.ID, got[1].ID)
	})

	t.Run("empty id set", func(t *testing.T) {
		got, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGormPriceListRepository_FindActiveByDirection_EqualPriority(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPriceListRepository(db)
	ctx := context.Background()

	older := newTestList(t, "older", pricelist.DirectionOutput, 5)
	older.CreatedAt = repoNow.Add(-2 * time.Hour)
	newer := newTestList(t, "newer", pricelist.DirectionOutput, 5)
	newer.CreatedAt = repoNow.Add(-time.Hour)
	first := newTestList(t, "first", pricelist.DirectionOutput, 1)
	first.CreatedAt = repoNow.Add(-3 * time.Hour)
	for _, l := range []*pricelist.PriceList{older, newer, first} {
		require.NoError(t, repo.CreateList(ctx, l))
	}

	got, err := repo.FindActiveByDirection(ctx, pricelist.DirectionOutput)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, newer.ID, got[1].ID)
	assert.Equal(t, older.ID, got[2].ID)
}

func TestGormPriceListRepository_Entries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPriceListRepository(db)
	ctx := context.Background()

	list := newTestList(t, "retail", pricelist.DirectionOutput, 1)
	other := newTestList(t, "other", pricelist.DirectionOutput, 2)
	require.NoError(t, repo.CreateList(ctx, list))
	require.NoError(t, repo.CreateList(ctx, other))

	product := uuid.New()
	lead := 3
	moq := decimal.NewFromInt(12)
	tier := newTestEntry(t, list.ID, product, "9.50")
	tier.MinQuantity = decimal.NewFromInt(10)
	tier.MaxQuantity = decimal.NewFromInt(99)
	tier.LeadTimeDays = &lead
	tier.MinimumOrderQuantity = &moq
	base := newTestEntry(t, list.ID, product, "10")
	elsewhere := newTestEntry(t, other.ID, product, "11")
	unrelated := newTestEntry(t, list.ID, uuid.New(), "1")
	require.NoError(t, repo.CreateEntries(ctx, []*pricelist.Entry{tier, base, elsewhere, unrelated}))

	t.Run("round trips entry columns", func(t *testing.T) {
		got, err := repo.FindByListAndProduct(ctx, list.ID, product)
		require.NoError(t, err)
		require.Len(t, got, 2)
		byID := map[uuid.UUID]pricelist.Entry{got[0].ID: got[0], got[1].ID: got[1]}
		saved := byID[tier.ID]
		assert.True(t, decimal.RequireFromString("9.5").Equal(saved.Price))
		assert.True(t, decimal.NewFromInt(10).Equal(saved.MinQuantity))
		assert.True(t, decimal.NewFromInt(99).Equal(saved.MaxQuantity))
		require.NotNil(t, saved.LeadTimeDays)
		assert.Equal(t, 3, *saved.LeadTimeDays)
		require.NotNil(t, saved.MinimumOrderQuantity)
		assert.True(t, moq.Equal(*saved.MinimumOrderQuantity))
		assert.Equal(t, 1, saved.Version)
	})

	t.Run("finds across lists and within a list", func(t *testing.T) {
		got, err := repo.FindByProduct(ctx, product)
		require.NoError(t, err)
		assert.Len(t, got, 3)

		got, err = repo.FindByList(ctx, list.ID)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("compare-and-swap price update", func(t *testing.T) {
		err := repo.UpdateEntryPrice(ctx, pricelist.PriceUpdate{
			EntryID:         base.ID,
			ExpectedVersion: 1,
			NewPrice:        decimal.NewFromInt(12),
			ModifiedBy:      "alice",
			ModifiedAt:      repoNow.Add(time.Hour),
		})
		require.NoError(t, err)

		err = repo.UpdateEntryPrice(ctx, pricelist.PriceUpdate{
			EntryID:         base.ID,
			ExpectedVersion: 1,
			NewPrice:        decimal.NewFromInt(13),
			ModifiedBy:      "bob",
			ModifiedAt:      repoNow.Add(time.Hour),
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		got, err := repo.FindByListAndProduct(ctx, list.ID, product)
		require.NoError(t, err)
		for _, e := range got {
			if e.ID == base.ID {
				assert.True(t, decimal.NewFromInt(12).Equal(e.Price))
				assert.Equal(t, 2, e.Version)
				assert.Equal(t, "alice", e.ModifiedBy)
			}
		}
	})

	t.Run("soft-deletes entries", func(t *testing.T) {
		require.NoError(t, repo.DeleteEntries(ctx, []uuid.UUID{unrelated.ID}, "alice", repoNow))

		got, err := repo.FindByList(ctx, list.ID)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		err = repo.DeleteEntries(ctx, []uuid.UUID{uuid.New()}, "alice", repoNow)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("deleted entries reject price updates", func(t *testing.T) {
		err := repo.UpdateEntryPrice(ctx, pricelist.PriceUpdate{
			EntryID:         unrelated.ID,
			ExpectedVersion: 2,
			NewPrice:        decimal.NewFromInt(2),
			ModifiedAt:      repoNow,
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormPriceListRepository_Generation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPriceListRepository(db)
	ctx := context.Background()

	list := newTestList(t, "acme-2026", pricelist.DirectionInput, 0)
	supplier := uuid.New()
	list.Generation = &pricelist.GenerationMetadata{
		Strategy:         pricelist.StrategyLastPurchasePrice,
		SupplierID:       supplier,
		SourceFrom:       repoNow.AddDate(0, -3, 0),
		SourceTo:         repoNow,
		DocumentCount:    4,
		MarkupPercentage: decimal.NewFromInt(10),
		Rounding:         pricelist.RoundingNone,
		GeneratedAt:      repoNow,
	}
	require.NoError(t, repo.CreateList(ctx, list))

	got, err := repo.FindByID(ctx, list.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Generation)
	assert.Equal(t, pricelist.StrategyLastPurchasePrice, got.Generation.Strategy)
	assert.Equal(t, supplier, got.Generation.SupplierID)
	assert.Equal(t, 4, got.Generation.DocumentCount)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Generation.MarkupPercentage))

	regenerated := *list.Generation
	regenerated.Strategy = pricelist.StrategyMedianPrice
	regenerated.DocumentCount = 7
	regenerated.GeneratedAt = repoNow.Add(24 * time.Hour)
	require.NoError(t, repo.UpdateGeneration(ctx, list.ID, regenerated, "alice"))

	got, err = repo.FindByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, pricelist.StrategyMedianPrice, got.Generation.Strategy)
	assert.Equal(t, 7, got.Generation.DocumentCount)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "alice", got.ModifiedBy)

	err = repo.UpdateGeneration(ctx, uuid.New(), regenerated, "alice")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormPriceListRepository_Assignments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPriceListRepository(db)
	ctx := context.Background()

	list := newTestList(t, "vip", pricelist.DirectionOutput, 1)
	require.NoError(t, repo.CreateList(ctx, list))

	party := uuid.New()
	discount := decimal.NewFromInt(5)
	override := 0
	a := pricelist.NewPartyAssignment(list.ID, party)
	a.GlobalDiscountPercentage = &discount
	a.PriorityOverride = &override
	a.IsPrimary = true
	a.CreatedAt = repoNow
	gone := pricelist.NewPartyAssignment(list.ID, uuid.New())
	gone.IsDeleted = true
	gone.CreatedAt = repoNow
	require.NoError(t, repo.CreateAssignments(ctx, []*pricelist.PartyAssignment{a, gone}))

	got, err := repo.FindByListAndParty(ctx, list.ID, party)
	require.NoError(t, err)
	assert.True(t, got.IsPrimary)
	require.NotNil(t, got.GlobalDiscountPercentage)
	assert.True(t, discount.Equal(*got.GlobalDiscountPercentage))
	require.NotNil(t, got.PriorityOverride)
	assert.Equal(t, 0, *got.PriorityOverride)

	_, err = repo.FindByListAndParty(ctx, list.ID, gone.BusinessPartyID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := repo.FindByListIDs(ctx, []uuid.UUID{list.ID})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGormTxRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("commits list and audit entry together", func(t *testing.T) {
		db := setupTestDB(t)
		runner := NewGormTxRunner(db)
		list := newTestList(t, "copy", pricelist.DirectionOutput, 1)

		err := runner.RunInTx(ctx, func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
			if err := w.CreateList(ctx, list); err != nil {
				return err
			}
			return sink.Record(ctx, audit.NewEntry(audit.EntityPriceList, list.ID, audit.ActionDuplicate, "alice", repoNow))
		})
		require.NoError(t, err)

		_, err = NewGormPriceListRepository(db).FindByID(ctx, list.ID)
		assert.NoError(t, err)
		trail, err := NewGormAuditRepository(db).FindByEntity(ctx, audit.EntityPriceList, list.ID)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, audit.ActionDuplicate, trail[0].Action)
		assert.Equal(t, "alice", trail[0].Actor)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := setupTestDB(t)
		runner := NewGormTxRunner(db)
		list := newTestList(t, "copy", pricelist.DirectionOutput, 1)
		boom := errors.New("boom")

		err := runner.RunInTx(ctx, func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
			if err := w.CreateList(ctx, list); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormPriceListRepository(db).FindByID(ctx, list.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPriceListRepository_UpdateEntryPrice_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormPriceListRepository(db.DB)

	entryID := uuid.New()
	update := pricelist.PriceUpdate{
		EntryID:         entryID,
		ExpectedVersion: 3,
		NewPrice:        decimal.NewFromInt(12),
		ModifiedBy:      "alice",
		ModifiedAt:      repoNow,
	}

	t.Run("guards on id, version and deletion", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "price_list_entries" SET .*version \+ 1.* WHERE .*id = \$\d AND version = \$\d AND is_deleted = \$\d`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateEntryPrice(context.Background(), update))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching row is a conflict", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "price_list_entries"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateEntryPrice(context.Background(), update)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver errors pass through", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "price_list_entries"`).
			WillReturnError(gorm.ErrInvalidDB)

		err := repo.UpdateEntryPrice(context.Background(), update)
		assert.ErrorIs(t, err, gorm.ErrInvalidDB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
