package pricelist

import (
	"context"
	"testing"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type duplicationFixture struct {
	*fixture
	source                 pricelist.PriceList
	widget, gadget, legacy uuid.UUID
	categoryID             uuid.UUID
	partyID                uuid.UUID
}

func newDuplicationFixture(t *testing.T) *duplicationFixture {
	f := &duplicationFixture{fixture: newFixture(t), categoryID: uuid.New()}
	from, to := days(-10), days(30)
	eventID := uuid.New()
	f.source = f.addList("SUMMER", func(l *pricelist.PriceList) {
		l.Priority = 4
		l.IsDefault = true
		l.ValidFrom, l.ValidTo = &from, &to
		l.EventID = &eventID
	})
	f.widget = f.addProduct("WIDGET", inCategory(f.categoryID)).ID
	f.gadget = f.addProduct("GADGET").ID
	f.legacy = f.addProduct("LEGACY", func(p *catalog.Product) { p.Status = catalog.ProductStatusInactive }).ID
	f.addEntry(f.source, f.widget, "10")
	f.addEntry(f.source, f.gadget, "19.90")
	f.addEntry(f.source, f.legacy, "5")

	f.partyID = f.addSupplier("CUSTOMER").ID
	a := pricelist.NewPartyAssignment(f.source.ID, f.partyID)
	a.GlobalDiscountPercentage = ptr(dec("5"))
	f.store.AddAssignment(*a)
	return f
}

func TestDuplicationService_Duplicate(t *testing.T) {
	t.Run("copies metadata and never the default flag", func(t *testing.T) {
		f := newDuplicationFixture(t)

		result, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: f.source.ID,
			Code:              "winter",
			Name:              "Winter",
			Description:       "Copy of summer",
		})

		require.NoError(t, err)
		list := result.PriceList
		assert.NotEqual(t, f.source.ID, list.ID)
		assert.Equal(t, "WINTER", list.Code)
		assert.Equal(t, "Copy of summer", list.Description)
		assert.Equal(t, f.source.Type, list.Type)
		assert.Equal(t, f.source.Direction, list.Direction)
		assert.Equal(t, f.source.Status, list.Status)
		assert.Equal(t, 4, list.Priority)
		assert.Equal(t, f.source.EventID, list.EventID)
		assert.Equal(t, f.source.ValidTo, list.ValidTo)
		assert.False(t, list.IsDefault)
		assert.Equal(t, 0, result.EntryCount)
		assert.Empty(t, f.entries(list.ID))

		trail := f.store.AuditEntries()
		require.Len(t, trail, 1)
		assert.Equal(t, audit.ActionDuplicate, trail[0].Action)
		assert.Equal(t, list.ID, trail[0].EntityID)
	})

	t.Run("overrides metadata", func(t *testing.T) {
		f := newDuplicationFixture(t)

		result, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: f.source.ID,
			Code:              "PROMO",
			Name:              "Promo",
			Priority:          ptr(0),
			Status:            ptr(pricelist.StatusDraft),
		})

		require.NoError(t, err)
		assert.Equal(t, 0, result.PriceList.Priority)
		assert.Equal(t, pricelist.StatusDraft, result.PriceList.Status)
	})

	t.Run("copies entries with markup and rounding", func(t *testing.T) {
		f := newDuplicationFixture(t)

		result, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: f.source.ID,
			Code:              "SUMMER-UP",
			Name:              "Summer up",
			CopyEntries:       true,
			MarkupPercentage:  ptr(dec("10")),
			Rounding:          pricelist.RoundingToNearest10Cents,
		})

		require.NoError(t, err)
		assert.Equal(t, 3, result.EntryCount)
		entries := f.entries(result.PriceList.ID)
		assertPrice(t, "11", entries[f.widget].Price)
		assertPrice(t, "21.9", entries[f.gadget].Price)
		assert.Equal(t, 1, entries[f.widget].Version)

		source := f.entries(f.source.ID)
		assertPrice(t, "10", source[f.widget].Price)
	})

	t.Run("filters entries", func(t *testing.T) {
		tests := []struct {
			name string
			req  func(f *duplicationFixture, r *DuplicateRequest)
			want func(f *duplicationFixture) []uuid.UUID
		}{
			{
				name: "active products only",
				req:  func(_ *duplicationFixture, r *DuplicateRequest) { r.ActiveOnly = true },
				want: func(f *duplicationFixture) []uuid.UUID { return []uuid.UUID{f.widget, f.gadget} },
			},
			{
				name: "product ids",
				req: func(f *duplicationFixture, r *DuplicateRequest) {
					r.ProductIDs = []uuid.UUID{f.gadget, f.legacy}
				},
				want: func(f *duplicationFixture) []uuid.UUID { return []uuid.UUID{f.gadget, f.legacy} },
			},
			{
				name: "category ids",
				req: func(f *duplicationFixture, r *DuplicateRequest) {
					r.CategoryIDs = []uuid.UUID{f.categoryID}
				},
				want: func(f *duplicationFixture) []uuid.UUID { return []uuid.UUID{f.widget} },
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newDuplicationFixture(t)
				req := DuplicateRequest{SourcePriceListID: f.source.ID, Code: "COPY", Name: "Copy", CopyEntries: true}
				tt.req(f, &req)

				result, err := f.duplicationService().Duplicate(context.Background(), req)

				require.NoError(t, err)
				var got []uuid.UUID
				for productID := range f.entries(result.PriceList.ID) {
					got = append(got, productID)
				}
				assert.ElementsMatch(t, tt.want(f), got)
			})
		}
	})

	t.Run("product ids and category ids are mutually exclusive", func(t *testing.T) {
		f := newDuplicationFixture(t)

		result, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: f.source.ID,
			Code:              "COPY",
			Name:              "Copy",
			CopyEntries:       true,
			ProductIDs:        []uuid.UUID{f.widget},
			CategoryIDs:       []uuid.UUID{f.categoryID},
		})

		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrMutuallyExclusiveFilters)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Empty(t, f.store.AuditEntries())
	})

	t.Run("copies associations verbatim", func(t *testing.T) {
		f := newDuplicationFixture(t)

		result, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: f.source.ID,
			Code:              "COPY",
			Name:              "Copy",
			CopyAssignments:   true,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.AssignmentCount)
		assert.Empty(t, result.Warnings)
		a, err := f.store.Assignments().FindByListAndParty(context.Background(), result.PriceList.ID, f.partyID)
		require.NoError(t, err)
		assertPrice(t, "5", a.Discount())
	})

	t.Run("warns when an association falls outside the new window", func(t *testing.T) {
		f := newDuplicationFixture(t)
		narrowFrom, narrowTo := days(-5), days(5)
		a := pricelist.NewPartyAssignment(f.source.ID, uuid.New())
		a.ValidTo = ptr(days(20))
		f.store.AddAssignment(*a)

		result, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: f.source.ID,
			Code:              "COPY",
			Name:              "Copy",
			ValidFrom:         &narrowFrom,
			ValidTo:           &narrowTo,
			CopyAssignments:   true,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.AssignmentCount)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("unknown source", func(t *testing.T) {
		f := newDuplicationFixture(t)

		_, err := f.duplicationService().Duplicate(context.Background(), DuplicateRequest{
			SourcePriceListID: uuid.New(),
			Code:              "COPY",
			Name:              "Copy",
		})

		assert.ErrorIs(t, err, ErrPriceListNotFound)
	})

}
