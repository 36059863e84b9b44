package pricelist

import (
	"context"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/erp/pricing/internal/infrastructure/persistence/snapshot"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return testNow.Add(time.Duration(n) * 24 * time.Hour)
}

func ptr[T any](v T) *T {
	return &v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertPrice(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	t      *testing.T
	store  *snapshot.Store
	clock  shared.FixedClock
	logger *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:      t,
		store:  snapshot.New(),
		clock:  shared.FixedClock{At: testNow},
		logger: zap.NewNop(),
	}
}

func (f *fixture) addProduct(code string, configure ...func(*catalog.Product)) catalog.Product {
	p, err := catalog.NewProduct(code, code, "pcs")
	if err != nil {
		f.t.Fatal(err)
	}
	for _, c := range configure {
		c(p)
	}
	f.store.AddProduct(*p)
	return *p
}

func (f *fixture) addSupplier(code string) partner.BusinessParty {
	p, err := partner.NewBusinessParty(code, code)
	if err != nil {
		f.t.Fatal(err)
	}
	f.store.AddBusinessParty(*p)
	return *p
}

func (f *fixture) addList(code string, configure ...func(*pricelist.PriceList)) pricelist.PriceList {
	l, err := pricelist.NewPriceList(code, code, pricelist.TypeSales, pricelist.DirectionOutput, 1)
	if err != nil {
		f.t.Fatal(err)
	}
	l.Status = pricelist.StatusActive
	for _, c := range configure {
		c(l)
	}
	f.store.AddPriceList(*l)
	return *l
}

func (f *fixture) addEntry(list pricelist.PriceList, productID uuid.UUID, price string) pricelist.Entry {
	e, err := pricelist.NewEntry(list.ID, productID, dec(price), list.Currency)
	if err != nil {
		f.t.Fatal(err)
	}
	f.store.AddEntry(*e)
	return *e
}

// purchase records a stock-increasing document of the supplier with one line per item
func (f *fixture) purchase(supplierID uuid.UUID, at time.Time, lines ...trade.DocumentLine) uuid.UUID {
	h := trade.DocumentHeader{
		ID:              uuid.New(),
		Number:          "PO-" + at.Format("20060102"),
		BusinessPartyID: &supplierID,
		IsStockIncrease: true,
		Date:            at,
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].Date = at
	}
	f.store.AddDocument(h, lines...)
	return h.ID
}

func line(productID uuid.UUID, price, qty string) trade.DocumentLine {
	return trade.DocumentLine{ProductID: productID, UnitPrice: dec(price), Quantity: dec(qty)}
}

func inCategory(id uuid.UUID) func(*catalog.Product) {
	return func(p *catalog.Product) { p.CategoryID = &id }
}

func (f *fixture) entries(listID uuid.UUID) map[uuid.UUID]pricelist.Entry {
	entries, err := f.store.Entries().FindByList(context.Background(), listID)
	if err != nil {
		f.t.Fatal(err)
	}
	out := make(map[uuid.UUID]pricelist.Entry, len(entries))
	for _, e := range entries {
		out[e.ProductID] = e
	}
	return out
}

func (f *fixture) bulkService() *BulkTransformService {
	s := f.store
	return NewBulkTransformService(s.PriceLists(), s.Entries(), s.Products(), s, f.clock, f.logger)
}

func (f *fixture) generationService() *HistoricalGenerationService {
	s := f.store
	return NewHistoricalGenerationService(s.PriceLists(), s.Entries(), s.Products(), s.BusinessParties(), s.Documents(), s, f.clock, f.logger)
}

func (f *fixture) duplicationService() *DuplicationService {
	s := f.store
	return NewDuplicationService(s.PriceLists(), s.Entries(), s.Assignments(), s.Products(), s, f.clock, f.logger)
}

// MockCacheInvalidator is a mock implementation of CacheInvalidator
type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordBulkRows(ctx context.Context, operation string, updated, failed int) {
	m.Called(ctx, operation, updated, failed)
}

func (m *MockMetrics) RecordGeneration(ctx context.Context, strategy string, products, skipped int) {
	m.Called(ctx, strategy, products, skipped)
}

// interceptingTx runs transactions on the store but lets a test override entry writes
type interceptingTx struct {
	store       *snapshot.Store
	updatePrice func(ctx context.Context, w pricelist.Writer, update pricelist.PriceUpdate) error
}

func (tx interceptingTx) RunInTx(ctx context.Context, fn func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error) error {
	return tx.store.RunInTx(ctx, func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error {
		return fn(ctx, interceptingWriter{Writer: w, update: tx.updatePrice}, sink)
	})
}

type interceptingWriter struct {
	pricelist.Writer
	update func(ctx context.Context, w pricelist.Writer, update pricelist.PriceUpdate) error
}

func (w interceptingWriter) UpdateEntryPrice(ctx context.Context, update pricelist.PriceUpdate) error {
	return w.update(ctx, w.Writer, update)
}
