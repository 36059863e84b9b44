package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/catalog"
	"github.com/erp/pricing/internal/domain/partner"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// document is the on-disk JSON layout
type document struct {
	Products        []productRecord     `json:"products"`
	ProductUnits    []productUnitRecord `json:"product_units,omitempty"`
	BusinessParties []partyRecord       `json:"business_parties,omitempty"`
	PriceLists      []priceListRecord   `json:"price_lists"`
	Entries         []entryRecord       `json:"entries"`
	Assignments     []assignmentRecord  `json:"assignments,omitempty"`
	Documents       []documentRecord    `json:"documents,omitempty"`
	AuditLog        []auditRecord       `json:"audit_log,omitempty"`
}

type productRecord struct {
	ID           uuid.UUID        `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	CategoryID   *uuid.UUID       `json:"category_id,omitempty"`
	BrandID      *uuid.UUID       `json:"brand_id,omitempty"`
	Unit         string           `json:"unit"`
	DefaultPrice *decimal.Decimal `json:"default_price,omitempty"`
	Status       string           `json:"status,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (r productRecord) toDomain() catalog.Product {
	status := catalog.ProductStatus(r.Status)
	if status == "" {
		status = catalog.ProductStatusActive
	}
	return catalog.Product{
		BaseEntity:   shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.CreatedAt},
		Code:         r.Code,
		Name:         r.Name,
		CategoryID:   r.CategoryID,
		BrandID:      r.BrandID,
		Unit:         r.Unit,
		DefaultPrice: r.DefaultPrice,
		Status:       status,
	}
}

func productFromDomain(p catalog.Product) productRecord {
	return productRecord{
		ID:           p.ID,
		Code:         p.Code,
		Name:         p.Name,
		CategoryID:   p.CategoryID,
		BrandID:      p.BrandID,
		Unit:         p.Unit,
		DefaultPrice: p.DefaultPrice,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
}

type productUnitRecord struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	UnitCode       string          `json:"unit_code"`
	UnitName       string          `json:"unit_name,omitempty"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

type partyRecord struct {
	ID                         uuid.UUID  `json:"id"`
	Code                       string     `json:"code"`
	Name                       string     `json:"name"`
	DefaultPriceMode           string     `json:"default_price_application_mode,omitempty"`
	ForcedPriceListID          *uuid.UUID `json:"forced_price_list_id,omitempty"`
	DefaultSalesPriceListID    *uuid.UUID `json:"default_sales_price_list_id,omitempty"`
	DefaultPurchasePriceListID *uuid.UUID `json:"default_purchase_price_list_id,omitempty"`
}

type generationRecord struct {
	Strategy         string          `json:"strategy"`
	SupplierID       uuid.UUID       `json:"supplier_id"`
	SourceFrom       time.Time       `json:"source_from"`
	SourceTo         time.Time       `json:"source_to"`
	DocumentCount    int             `json:"document_count"`
	MarkupPercentage decimal.Decimal `json:"markup_percentage"`
	Rounding         string          `json:"rounding"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

type priceListRecord struct {
	ID          uuid.UUID         `json:"id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Type        string            `json:"type"`
	Direction   string            `json:"direction"`
	Status      string            `json:"status"`
	Priority    int               `json:"priority"`
	IsDefault   bool              `json:"is_default,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	ValidFrom   *time.Time        `json:"valid_from,omitempty"`
	ValidTo     *time.Time        `json:"valid_to,omitempty"`
	EventID     *uuid.UUID        `json:"event_id,omitempty"`
	Generation  *generationRecord `json:"generation,omitempty"`
	IsDeleted   bool              `json:"is_deleted,omitempty"`
	Version     int               `json:"version,omitempty"`
	CreatedBy   string            `json:"created_by,omitempty"`
	ModifiedBy  string            `json:"modified_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (r priceListRecord) toDomain() pricelist.PriceList {
	version := r.Version
	if version == 0 {
		version = 1
	}
	l := pricelist.PriceList{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
			Version:    version,
		},
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Type:        pricelist.ListType(r.Type),
		Direction:   pricelist.Direction(r.Direction),
		Status:      pricelist.Status(r.Status),
		Priority:    r.Priority,
		IsDefault:   r.IsDefault,
		Currency:    valueobject.Currency(r.Currency).OrDefault(),
		ValidFrom:   r.ValidFrom,
		ValidTo:     r.ValidTo,
		EventID:     r.EventID,
		IsDeleted:   r.IsDeleted,
		CreatedBy:   r.CreatedBy,
		ModifiedBy:  r.ModifiedBy,
	}
	if g := r.Generation; g != nil {
		l.Generation = &pricelist.GenerationMetadata{
			Strategy:         pricelist.GenerationStrategy(g.Strategy),
			SupplierID:       g.SupplierID,
			SourceFrom:       g.SourceFrom,
			SourceTo:         g.SourceTo,
			DocumentCount:    g.DocumentCount,
			MarkupPercentage: g.MarkupPercentage,
			Rounding:         pricelist.RoundingPolicy(g.Rounding),
			GeneratedAt:      g.GeneratedAt,
		}
	}
	return l
}

func priceListFromDomain(l pricelist.PriceList) priceListRecord {
	r := priceListRecord{
		ID:          l.ID,
		Code:        l.Code,
		Name:        l.Name,
		Description: l.Description,
		Type:        string(l.Type),
		Direction:   string(l.Direction),
		Status:      string(l.Status),
		Priority:    l.Priority,
		IsDefault:   l.IsDefault,
		Currency:    string(l.Currency),
		ValidFrom:   l.ValidFrom,
		ValidTo:     l.ValidTo,
		EventID:     l.EventID,
		IsDeleted:   l.IsDeleted,
		Version:     l.Version,
		CreatedBy:   l.CreatedBy,
		ModifiedBy:  l.ModifiedBy,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if g := l.Generation; g != nil {
		r.Generation = &generationRecord{
			Strategy:         string(g.Strategy),
			SupplierID:       g.SupplierID,
			SourceFrom:       g.SourceFrom,
			SourceTo:         g.SourceTo,
			DocumentCount:    g.DocumentCount,
			MarkupPercentage: g.MarkupPercentage,
			Rounding:         string(g.Rounding),
			GeneratedAt:      g.GeneratedAt,
		}
	}
	return r
}

type entryRecord struct {
	ID                   uuid.UUID        `json:"id"`
	PriceListID          uuid.UUID        `json:"price_list_id"`
	ProductID            uuid.UUID        `json:"product_id"`
	Price                decimal.Decimal  `json:"price"`
	Currency             string           `json:"currency,omitempty"`
	UnitCode             string           `json:"unit_code,omitempty"`
	MinQuantity          *decimal.Decimal `json:"min_quantity,omitempty"`
	MaxQuantity          decimal.Decimal  `json:"max_quantity"`
	IsEditable           bool             `json:"is_editable"`
	IsDiscountable       bool             `json:"is_discountable"`
	Score                int              `json:"score,omitempty"`
	LeadTimeDays         *int             `json:"lead_time_days,omitempty"`
	MinimumOrderQuantity *decimal.Decimal `json:"minimum_order_quantity,omitempty"`
	SupplierProductCode  string           `json:"supplier_product_code,omitempty"`
	Version              int              `json:"version,omitempty"`
	IsDeleted            bool             `json:"is_deleted,omitempty"`
	ModifiedBy           string           `json:"modified_by,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (r entryRecord) toDomain() pricelist.Entry {
	minQty := decimal.NewFromInt(1)
	if r.MinQuantity != nil {
		minQty = *r.MinQuantity
	}
	version := r.Version
	if version == 0 {
		version = 1
	}
	return pricelist.Entry{
		ID:                   r.ID,
		PriceListID:          r.PriceListID,
		ProductID:            r.ProductID,
		Price:                r.Price,
		Currency:             valueobject.Currency(r.Currency),
		UnitCode:             r.UnitCode,
		MinQuantity:          minQty,
		MaxQuantity:          r.MaxQuantity,
		IsEditable:           r.IsEditable,
		IsDiscountable:       r.IsDiscountable,
		Score:                r.Score,
		LeadTimeDays:         r.LeadTimeDays,
		MinimumOrderQuantity: r.MinimumOrderQuantity,
		SupplierProductCode:  r.SupplierProductCode,
		Version:              version,
		IsDeleted:            r.IsDeleted,
		ModifiedBy:           r.ModifiedBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func entryFromDomain(e pricelist.Entry) entryRecord {
	minQty := e.MinQuantity
	return entryRecord{
		ID:                   e.ID,
		PriceListID:          e.PriceListID,
		ProductID:            e.ProductID,
		Price:                e.Price,
		Currency:             string(e.Currency),
		UnitCode:             e.UnitCode,
		MinQuantity:          &minQty,
		MaxQuantity:          e.MaxQuantity,
		IsEditable:           e.IsEditable,
		IsDiscountable:       e.IsDiscountable,
		Score:                e.Score,
		LeadTimeDays:         e.LeadTimeDays,
		MinimumOrderQuantity: e.MinimumOrderQuantity,
		SupplierProductCode:  e.SupplierProductCode,
		Version:              e.Version,
		IsDeleted:            e.IsDeleted,
		ModifiedBy:           e.ModifiedBy,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

type assignmentRecord struct {
	ID                       uuid.UUID        `json:"id"`
	PriceListID              uuid.UUID        `json:"price_list_id"`
	BusinessPartyID          uuid.UUID        `json:"business_party_id"`
	PriorityOverride         *int             `json:"priority_override,omitempty"`
	GlobalDiscountPercentage *decimal.Decimal `json:"global_discount_percentage,omitempty"`
	ValidFrom                *time.Time       `json:"valid_from,omitempty"`
	ValidTo                  *time.Time       `json:"valid_to,omitempty"`
	IsPrimary                bool             `json:"is_primary,omitempty"`
	IsDeleted                bool             `json:"is_deleted,omitempty"`
	CreatedAt                time.Time        `json:"created_at"`
}

type lineRecord struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
	// Date defaults to the header date
	Date *time.Time `json:"date,omitempty"`
}

type documentRecord struct {
	ID              uuid.UUID    `json:"id"`
	Number          string       `json:"number"`
	BusinessPartyID *uuid.UUID   `json:"business_party_id,omitempty"`
	PriceListID     *uuid.UUID   `json:"price_list_id,omitempty"`
	IsStockIncrease bool         `json:"is_stock_increase"`
	Date            time.Time    `json:"date"`
	Lines           []lineRecord `json:"lines,omitempty"`
}

type auditRecord struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Action     string    `json:"action"`
	OldSummary string    `json:"old_summary,omitempty"`
	NewSummary string    `json:"new_summary,omitempty"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}

// Load decodes a JSON snapshot into a new store
func Load(r io.Reader) (*Store, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	s := New()
	for _, p := range doc.Products {
		s.AddProduct(p.toDomain())
	}
	for _, u := range doc.ProductUnits {
		s.AddProductUnit(catalog.ProductUnit(u))
	}
	for _, p := range doc.BusinessParties {
		s.AddBusinessParty(partner.BusinessParty{
			BaseEntity:                  shared.BaseEntity{ID: p.ID},
			Code:                        p.Code,
			Name:                        p.Name,
			DefaultPriceApplicationMode: pricelist.ApplicationMode(p.DefaultPriceMode),
			ForcedPriceListID:           p.ForcedPriceListID,
			DefaultSalesPriceListID:     p.DefaultSalesPriceListID,
			DefaultPurchasePriceListID:  p.DefaultPurchasePriceListID,
		})
	}
	for _, l := range doc.PriceLists {
		s.AddPriceList(l.toDomain())
	}
	for _, e := range doc.Entries {
		s.AddEntry(e.toDomain())
	}
	for _, a := range doc.Assignments {
		s.AddAssignment(pricelist.PartyAssignment(a))
	}
	for _, d := range doc.Documents {
		lines := make([]trade.DocumentLine, len(d.Lines))
		for i, l := range d.Lines {
			date := d.Date
			if l.Date != nil {
				date = *l.Date
			}
			lines[i] = trade.DocumentLine{
				ID:        l.ID,
				ProductID: l.ProductID,
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
				Date:      date,
			}
		}
		s.AddDocument(trade.DocumentHeader{
			ID:              d.ID,
			Number:          d.Number,
			BusinessPartyID: d.BusinessPartyID,
			PriceListID:     d.PriceListID,
			IsStockIncrease: d.IsStockIncrease,
			Date:            d.Date,
		}, lines...)
	}
	for _, a := range doc.AuditLog {
		s.data.audit = append(s.data.audit, audit.Entry(a))
	}
	return s, nil
}

// LoadFile reads a JSON snapshot from disk
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Save encodes the current state, soft-deleted rows included
func (s *Store) Save(w io.Writer) error {
	data, unlock := s.read()
	doc := document{
		Products:        make([]productRecord, 0, len(data.products.rows)),
		ProductUnits:    make([]productUnitRecord, 0, len(data.units.rows)),
		BusinessParties: make([]partyRecord, 0, len(data.parties.rows)),
		PriceLists:      make([]priceListRecord, 0, len(data.lists.rows)),
		Entries:         make([]entryRecord, 0, len(data.entries.rows)),
		Assignments:     make([]assignmentRecord, 0, len(data.assignments.rows)),
		AuditLog:        make([]auditRecord, 0, len(data.audit)),
	}
	for _, p := range data.products.rows {
		doc.Products = append(doc.Products, productFromDomain(p))
	}
	for _, u := range data.units.rows {
		doc.ProductUnits = append(doc.ProductUnits, productUnitRecord(u))
	}
	for _, p := range data.parties.rows {
		doc.BusinessParties = append(doc.BusinessParties, partyRecord{
			ID:                         p.ID,
			Code:                       p.Code,
			Name:                       p.Name,
			DefaultPriceMode:           string(p.DefaultPriceApplicationMode),
			ForcedPriceListID:          p.ForcedPriceListID,
			DefaultSalesPriceListID:    p.DefaultSalesPriceListID,
			DefaultPurchasePriceListID: p.DefaultPurchasePriceListID,
		})
	}
	for _, l := range data.lists.rows {
		doc.PriceLists = append(doc.PriceLists, priceListFromDomain(l))
	}
	for _, e := range data.entries.rows {
		doc.Entries = append(doc.Entries, entryFromDomain(e))
	}
	for _, a := range data.assignments.rows {
		doc.Assignments = append(doc.Assignments, assignmentRecord(a))
	}
	byDoc := make(map[uuid.UUID][]lineRecord)
	for _, l := range data.lines {
		date := l.Date
		byDoc[l.DocumentID] = append(byDoc[l.DocumentID], lineRecord{
			ID: l.ID, ProductID: l.ProductID, UnitPrice: l.UnitPrice, Quantity: l.Quantity, Date: &date,
		})
	}
	for _, h := range data.headers.rows {
		doc.Documents = append(doc.Documents, documentRecord{
			ID:              h.ID,
			Number:          h.Number,
			BusinessPartyID: h.BusinessPartyID,
			PriceListID:     h.PriceListID,
			IsStockIncrease: h.IsStockIncrease,
			Date:            h.Date,
			Lines:           byDoc[h.ID],
		})
	}
	for _, a := range data.audit {
		doc.AuditLog = append(doc.AuditLog, auditRecord(a))
	}
	unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// SaveFile writes the current state to disk
func (s *Store) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := s.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
