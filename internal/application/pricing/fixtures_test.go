package pricing

import (
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/snapshot"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// fixture wires the pricing services over an in-memory snapshot store
type fixture struct {
	t       *testing.T
	store   *snapshot.Store
	clock   shared.FixedClock
	logger  *zap.Logger
	product catalog.Product
	created time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		store:   snapshot.New(),
		clock:   shared.FixedClock{At: testNow},
		logger:  zap.NewNop(),
		created: days(-30),
	}
	f.product = f.addProduct("P-1", "pcs", nil)
	return f
}

func (f *fixture) addProduct(code, unit string, defaultPrice *decimal.Decimal) catalog.Product {
	p, err := catalog.NewProduct(code, code, unit)
	if err != nil {
		f.t.Fatal(err)
	}
	p.DefaultPrice = defaultPrice
	f.store.AddProduct(*p)
	return *p
}

func (f *fixture) addUnit(productID uuid.UUID, code, rate string) {
	u, err := catalog.NewProductUnit(productID, code, code, dec(rate))
	if err != nil {
		f.t.Fatal(err)
	}
	f.store.AddProductUnit(*u)
}

func (f *fixture) addParty(code string, configure ...func(*partner.BusinessParty)) partner.BusinessParty {
	p, err := partner.NewBusinessParty(code, code)
	if err != nil {
		f.t.Fatal(err)
	}
	for _, c := range configure {
		c(p)
	}
	f.store.AddBusinessParty(*p)
	return *p
}

// addList creates an active list; lists created later are newer
func (f *fixture) addList(name string, priority int, configure ...func(*pricelist.PriceList)) pricelist.PriceList {
	l, err := pricelist.NewPriceList(name, name, pricelist.TypeSales, pricelist.DirectionOutput, priority)
	if err != nil {
		f.t.Fatal(err)
	}
	l.Status = pricelist.StatusActive
	f.created = f.created.Add(time.Hour)
	l.CreatedAt = f.created
	l.UpdatedAt = f.created
	for _, c := range configure {
		c(l)
	}
	f.store.AddPriceList(*l)
	return *l
}

func (f *fixture) addEntry(list pricelist.PriceList, productID uuid.UUID, price string, configure ...func(*pricelist.Entry)) pricelist.Entry {
	e, err := pricelist.NewEntry(list.ID, productID, dec(price), list.Currency)
	if err != nil {
		f.t.Fatal(err)
	}
	for _, c := range configure {
		c(e)
	}
	f.store.AddEntry(*e)
	return *e
}

func (f *fixture) assign(list pricelist.PriceList, partyID uuid.UUID, configure ...func(*pricelist.PartyAssignment)) pricelist.PartyAssignment {
	a := pricelist.NewPartyAssignment(list.ID, partyID)
	for _, c := range configure {
		c(a)
	}
	f.store.AddAssignment(*a)
	return *a
}

func withDiscount(pct string) func(*pricelist.PartyAssignment) {
	return func(a *pricelist.PartyAssignment) { a.GlobalDiscountPercentage = ptr(dec(pct)) }
}

func withStatus(s pricelist.Status) func(*pricelist.PriceList) {
	return func(l *pricelist.PriceList) { l.Status = s }
}

func withValidity(from, to *time.Time) func(*pricelist.PriceList) {
	return func(l *pricelist.PriceList) { l.ValidFrom, l.ValidTo = from, to }
}

func asPurchase() func(*pricelist.PriceList) {
	return func(l *pricelist.PriceList) {
		l.Type = pricelist.TypePurchase
		l.Direction = pricelist.DirectionInput
	}
}

func withQuantityBreak(min, max string) func(*pricelist.Entry) {
	return func(e *pricelist.Entry) {
		e.MinQuantity = dec(min)
		e.MaxQuantity = dec(max)
	}
}

func (f *fixture) priceService() *PriceApplicationService {
	s := f.store
	selector := NewModeSelector(s.BusinessParties(), f.logger)
	forced := NewForcedListResolver(s.PriceLists(), s.Entries(), s.Assignments(), s.BusinessParties(), f.logger)
	automatic := NewAutomaticResolver(s.Products(), s.PriceLists(), s.Entries(), s.Assignments(), f.logger)
	converter := NewUnitPriceConverter(s.Products(), s.ProductUnits(), f.logger)
	return NewPriceApplicationService(selector, forced, automatic, converter, f.clock, f.logger)
}

func (f *fixture) cascadingResolver() *CascadingResolver {
	s := f.store
	return NewCascadingResolver(s.Products(), s.PriceLists(), s.Entries(), s.Documents(), s.BusinessParties(), f.clock, f.logger)
}

func (f *fixture) comparisonService() *PurchaseComparisonService {
	s := f.store
	return NewPurchaseComparisonService(s.PriceLists(), s.Entries(), s.Assignments(), s.BusinessParties(), f.clock, f.logger)
}
