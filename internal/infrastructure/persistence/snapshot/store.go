// Package snapshot provides an in-memory store for the pricing engine, loaded from
// and saved to a JSON document. It backs the pricectl CLI when no database is
// configured and serves as a realistic fixture in tests.
package snapshot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/google/uuid"
)

// table keeps rows in insertion order with an id index
type table[T any] struct {
	rows  []T
	index map[uuid.UUID]int
}

func newTable[T any]() table[T] {
	return table[T]{index: make(map[uuid.UUID]int)}
}

func (t *table[T]) put(id uuid.UUID, row T) {
	if i, ok := t.index[id]; ok {
		t.rows[i] = row
		return
	}
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
}

func (t *table[T]) get(id uuid.UUID) (T, bool) {
	i, ok := t.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i], true
}

func (t *table[T]) ref(id uuid.UUID) *T {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	return &t.rows[i]
}

func (t *table[T]) clone() table[T] {
	out := table[T]{
		rows:  append([]T(nil), t.rows...),
		index: make(map[uuid.UUID]int, len(t.index)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

type state struct {
	products    table[catalog.Product]
	units       table[catalog.ProductUnit]
	parties     table[partner.BusinessParty]
	lists       table[pricelist.PriceList]
	entries     table[pricelist.Entry]
	assignments table[pricelist.PartyAssignment]
	headers     table[trade.DocumentHeader]
	lines       []trade.DocumentLine
	audit       []audit.Entry
}

func newState() *state {
	return &state{
		products:    newTable[catalog.Product](),
		units:       newTable[catalog.ProductUnit](),
		parties:     newTable[partner.BusinessParty](),
		lists:       newTable[pricelist.PriceList](),
		entries:     newTable[pricelist.Entry](),
		assignments: newTable[pricelist.PartyAssignment](),
		headers:     newTable[trade.DocumentHeader](),
	}
}

func (s *state) clone() *state {
	return &state{
		products:    s.products.clone(),
		units:       s.units.clone(),
		parties:     s.parties.clone(),
		lists:       s.lists.clone(),
		entries:     s.entries.clone(),
		assignments: s.assignments.clone(),
		headers:     s.headers.clone(),
		lines:       append([]trade.DocumentLine(nil), s.lines...),
		audit:       append([]audit.Entry(nil), s.audit...),
	}
}

// Store is a thread-safe in-memory implementation of every pricing port.
// Transactions are serialized and applied atomically.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

// New creates an empty store
func New() *Store {
	return &Store{data: newState()}
}

// AddProduct inserts or replaces a product
func (s *Store) AddProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products.put(p.ID, p)
}

// AddProductUnit inserts or replaces a product unit
func (s *Store) AddProductUnit(u catalog.ProductUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.units.put(u.ID, u)
}

// AddBusinessParty inserts or replaces a business party
func (s *Store) AddBusinessParty(p partner.BusinessParty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.parties.put(p.ID, p)
}

// AddPriceList inserts or replaces a price list
func (s *Store) AddPriceList(l pricelist.PriceList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.lists.put(l.ID, l)
}

// AddEntry inserts or replaces a price list entry
func (s *Store) AddEntry(e pricelist.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.entries.put(e.ID, e)
}

// AddAssignment inserts or replaces a business party association
func (s *Store) AddAssignment(a pricelist.PartyAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.assignments.put(a.ID, a)
}

// AddDocument inserts a document header with its lines
func (s *Store) AddDocument(h trade.DocumentHeader, lines ...trade.DocumentLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.headers.put(h.ID, h)
	for _, l := range lines {
		l.DocumentID = h.ID
		s.data.lines = append(s.data.lines, l)
	}
}

// AuditEntries returns the recorded audit trail in order
func (s *Store) AuditEntries() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry(nil), s.data.audit...)
}

// Contents is a copy of every row of a store, soft-deleted rows included
type Contents struct {
	Products        []catalog.Product
	ProductUnits    []catalog.ProductUnit
	BusinessParties []partner.BusinessParty
	PriceLists      []pricelist.PriceList
	Entries         []pricelist.Entry
	Assignments     []pricelist.PartyAssignment
	Documents       []trade.DocumentHeader
	Lines           map[uuid.UUID][]trade.DocumentLine
	AuditLog        []audit.Entry
}

// Contents copies the current state, e.g. to import it into a database
func (s *Store) Contents() Contents {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.data
	c := Contents{
		Products:        append([]catalog.Product(nil), d.products.rows...),
		ProductUnits:    append([]catalog.ProductUnit(nil), d.units.rows...),
		BusinessParties: append([]partner.BusinessParty(nil), d.parties.rows...),
		PriceLists:      append([]pricelist.PriceList(nil), d.lists.rows...),
		Entries:         append([]pricelist.Entry(nil), d.entries.rows...),
		Assignments:     append([]pricelist.PartyAssignment(nil), d.assignments.rows...),
		Documents:       append([]trade.DocumentHeader(nil), d.headers.rows...),
		Lines:           make(map[uuid.UUID][]trade.DocumentLine, len(d.headers.rows)),
		AuditLog:        append([]audit.Entry(nil), d.audit...),
	}
	for _, l := range d.lines {
		c.Lines[l.DocumentID] = append(c.Lines[l.DocumentID], l)
	}
	return c
}

// Products returns the product read port
func (s *Store) Products() catalog.ProductReader { return productView{s} }

// ProductUnits returns the product unit read port
func (s *Store) ProductUnits() catalog.ProductUnitReader { return unitView{s} }

// BusinessParties returns the business party read port
func (s *Store) BusinessParties() partner.Reader { return partyView{s} }

// Documents returns the document read port
func (s *Store) Documents() trade.DocumentReader { return documentView{s} }

// PriceLists returns the price list read port
func (s *Store) PriceLists() pricelist.Reader { return listView{s} }

// Entries returns the price list entry read port
func (s *Store) Entries() pricelist.EntryReader { return entryView{s} }

// Assignments returns the business party association read port
func (s *Store) Assignments() pricelist.AssignmentReader { return assignmentView{s} }

// RunInTx runs fn against a private copy of the data and publishes the copy when fn
// returns nil. Readers see either the state before or after the whole transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	staged := s.data.clone()
	s.mu.RUnlock()

	tx := &txWriter{data: staged}
	if err := fn(ctx, tx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = staged
	s.mu.Unlock()
	return nil
}

func (s *Store) read() (*state, func()) {
	s.mu.RLock()
	return s.data, s.mu.RUnlock
}

type productView struct{ s *Store }

func (v productView) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	data, unlock := v.s.read()
	defer unlock()
	p, ok := data.products.get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (v productView) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	data, unlock := v.s.read()
	defer unlock()
	want := idSet(ids)
	out := make([]catalog.Product, 0, len(ids))
	for _, p := range data.products.rows {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type unitView struct{ s *Store }

func (v unitView) FindByProductIDAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*catalog.ProductUnit, error) {
	data, unlock := v.s.read()
	defer unlock()
	for _, u := range data.units.rows {
		if u.ProductID == productID && u.UnitCode == unitCode {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

type partyView struct{ s *Store }

func (v partyView) FindByID(ctx context.Context, id uuid.UUID) (*partner.BusinessParty, error) {
	data, unlock := v.s.read()
	defer unlock()
	p, ok := data.parties.get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (v partyView) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.BusinessParty, error) {
	data, unlock := v.s.read()
	defer unlock()
	want := idSet(ids)
	out := make([]partner.BusinessParty, 0, len(ids))
	for _, p := range data.parties.rows {
		if _, ok := want[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type documentView struct{ s *Store }

func (v documentView) FindHeaderByID(ctx context.Context, id uuid.UUID) (*trade.DocumentHeader, error) {
	data, unlock := v.s.read()
	defer unlock()
	h, ok := data.headers.get(id)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &h, nil
}

func (v documentView) FindPurchaseLines(ctx context.Context, query trade.PurchaseLineQuery) ([]trade.DocumentLine, error) {
	data, unlock := v.s.read()
	defer unlock()
	out := make([]trade.DocumentLine, 0)
	for _, l := range data.lines {
		h, ok := data.headers.get(l.DocumentID)
		if !ok || !h.IsStockIncrease || h.BusinessPartyID == nil || *h.BusinessPartyID != query.SupplierID {
			continue
		}
		if l.Date.Before(query.From) || l.Date.After(query.To) {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type listView struct{ s *Store }

func (v listView) FindByID(ctx context.Context, id uuid.UUID) (*pricelist.PriceList, error) {
	data, unlock := v.s.read()
	defer unlock()
	l, ok := data.lists.get(id)
	if !ok || l.IsDeleted {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (v listView) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]pricelist.PriceList, error) {
	want := idSet(ids)
	return v.filter(func(l *pricelist.PriceList) bool {
		_, ok := want[l.ID]
		return ok
	}), nil
}

func (v listView) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]pricelist.PriceList, error) {
	return v.filter(func(l *pricelist.PriceList) bool {
		return l.EventID != nil && *l.EventID == eventID
	}), nil
}

func (v listView) FindActiveByDirection(ctx context.Context, direction pricelist.Direction) ([]pricelist.PriceList, error) {
	out := v.filter(func(l *pricelist.PriceList) bool {
		return l.Direction == direction && l.IsActive()
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (v listView) filter(keep func(*pricelist.PriceList) bool) []pricelist.PriceList {
	data, unlock := v.s.read()
	defer unlock()
	out := make([]pricelist.PriceList, 0)
	for i := range data.lists.rows {
		l := &data.lists.rows[i]
		if !l.IsDeleted && keep(l) {
			out = append(out, *l)
		}
	}
	return out
}

type entryView struct{ s *Store }

func (v entryView) FindByProduct(ctx context.Context, productID uuid.UUID) ([]pricelist.Entry, error) {
	return v.filter(func(e *pricelist.Entry) bool { return e.ProductID == productID }), nil
}

func (v entryView) FindByListAndProduct(ctx context.Context, priceListID, productID uuid.UUID) ([]pricelist.Entry, error) {
	return v.filter(func(e *pricelist.Entry) bool {
		return e.PriceListID == priceListID && e.ProductID == productID
	}), nil
}

func (v entryView) FindByList(ctx context.Context, priceListID uuid.UUID) ([]pricelist.Entry, error) {
	return v.filter(func(e *pricelist.Entry) bool { return e.PriceListID == priceListID }), nil
}

func (v entryView) filter(keep func(*pricelist.Entry) bool) []pricelist.Entry {
	data, unlock := v.s.read()
	defer unlock()
	out := make([]pricelist.Entry, 0)
	for i := range data.entries.rows {
		e := &data.entries.rows[i]
		if !e.IsDeleted && keep(e) {
			out = append(out, *e)
		}
	}
	return out
}

type assignmentView struct{ s *Store }

func (v assignmentView) FindByListIDs(ctx context.Context, priceListIDs []uuid.UUID) ([]pricelist.PartyAssignment, error) {
	data, unlock := v.s.read()
	defer unlock()
	want := idSet(priceListIDs)
	out := make([]pricelist.PartyAssignment, 0)
	for _, a := range data.assignments.rows {
		if _, ok := want[a.PriceListID]; ok && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out, nil
}

func (v assignmentView) FindByListAndParty(ctx context.Context, priceListID, businessPartyID uuid.UUID) (*pricelist.PartyAssignment, error) {
	data, unlock := v.s.read()
	defer unlock()
	for _, a := range data.assignments.rows {
		if a.PriceListID == priceListID && a.BusinessPartyID == businessPartyID && !a.IsDeleted {
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound
}

// txWriter mutates a staged copy owned by one transaction
type txWriter struct {
	data *state
}

func (w *txWriter) CreateList(ctx context.Context, list *pricelist.PriceList) error {
	if _, ok := w.data.lists.get(list.ID); ok {
		return shared.ErrAlreadyExists
	}
	w.data.lists.put(list.ID, *list)
	return nil
}

func (w *txWriter) CreateEntries(ctx context.Context, entries []*pricelist.Entry) error {
	for _, e := range entries {
		if _, ok := w.data.entries.get(e.ID); ok {
			return shared.ErrAlreadyExists
		}
		w.data.entries.put(e.ID, *e)
	}
	return nil
}

func (w *txWriter) CreateAssignments(ctx context.Context, assignments []*pricelist.PartyAssignment) error {
	for _, a := range assignments {
		if _, ok := w.data.assignments.get(a.ID); ok {
			return shared.ErrAlreadyExists
		}
		w.data.assignments.put(a.ID, *a)
	}
	return nil
}

func (w *txWriter) UpdateEntryPrice(ctx context.Context, update pricelist.PriceUpdate) error {
	e := w.data.entries.ref(update.EntryID)
	if e == nil || e.IsDeleted || e.Version != update.ExpectedVersion {
		return shared.ErrConcurrencyConflict
	}
	e.Price = update.NewPrice
	e.Version++
	e.ModifiedBy = update.ModifiedBy
	e.UpdatedAt = update.ModifiedAt
	return nil
}

func (w *txWriter) DeleteEntries(ctx context.Context, ids []uuid.UUID, modifiedBy string, at time.Time) error {
	for _, id := range ids {
		e := w.data.entries.ref(id)
		if e == nil {
			return shared.ErrNotFound
		}
		e.IsDeleted = true
		e.Version++
		e.ModifiedBy = modifiedBy
		e.UpdatedAt = at
	}
	return nil
}

func (w *txWriter) UpdateGeneration(ctx context.Context, priceListID uuid.UUID, meta pricelist.GenerationMetadata, modifiedBy string) error {
	l := w.data.lists.ref(priceListID)
	if l == nil || l.IsDeleted {
		return shared.ErrNotFound
	}
	l.Generation = &meta
	l.ModifiedBy = modifiedBy
	l.Bump(meta.GeneratedAt)
	return nil
}

func (w *txWriter) Record(ctx context.Context, entry audit.Entry) error {
	w.data.audit = append(w.data.audit, entry)
	return nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
