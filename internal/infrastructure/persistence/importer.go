package persistence

import (
	"context"
	"fmt"

	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/infrastructure/persistence/snapshot"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ImportStats counts the rows written by ImportSnapshot
type ImportStats struct {
	Products        int `json:"products"`
	ProductUnits    int `json:"product_units"`
	BusinessParties int `json:"business_parties"`
	PriceLists      int `json:"price_lists"`
	Entries         int `json:"entries"`
	Assignments     int `json:"assignments"`
	Documents       int `json:"documents"`
	AuditEntries    int `json:"audit_entries"`
}

// ImportSnapshot writes the contents of a snapshot into an empty schema in one
// transaction. Rows are written parents first so foreign keys hold.
func ImportSnapshot(ctx context.Context, db *gorm.DB, contents snapshot.Contents, logger *zap.Logger) (ImportStats, error) {
	var stats ImportStats
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := NewGormProductRepository(tx)
		units := NewGormProductUnitRepository(tx)
		parties := NewGormBusinessPartyRepository(tx)
		documents := NewGormDocumentRepository(tx)
		lists := NewGormPriceListRepository(tx)
		auditLog := NewGormAuditRepository(tx)

		for i := range contents.Products {
			if err := products.Save(ctx, &contents.Products[i]); err != nil {
				return fmt.Errorf("import product %s: %w", contents.Products[i].Code, err)
			}
		}
		stats.Products = len(contents.Products)

		for i := range contents.ProductUnits {
			if err := units.Save(ctx, &contents.ProductUnits[i]); err != nil {
				return fmt.Errorf("import product unit %s: %w", contents.ProductUnits[i].UnitCode, err)
			}
		}
		stats.ProductUnits = len(contents.ProductUnits)

		for i := range contents.BusinessParties {
			if err := parties.Save(ctx, &contents.BusinessParties[i]); err != nil {
				return fmt.Errorf("import business party %s: %w", contents.BusinessParties[i].Code, err)
			}
		}
		stats.BusinessParties = len(contents.BusinessParties)

		for i := range contents.PriceLists {
			if err := lists.CreateList(ctx, &contents.PriceLists[i]); err != nil {
				return fmt.Errorf("import price list %s: %w", contents.PriceLists[i].Code, err)
			}
		}
		stats.PriceLists = len(contents.PriceLists)

		if len(contents.Entries) > 0 {
			entries := make([]*pricelist.Entry, len(contents.Entries))
			for i := range contents.Entries {
				entries[i] = &contents.Entries[i]
			}
			if err := lists.CreateEntries(ctx, entries); err != nil {
				return fmt.Errorf("import entries: %w", err)
			}
		}
		stats.Entries = len(contents.Entries)

		if len(contents.Assignments) > 0 {
			assignments := make([]*pricelist.PartyAssignment, len(contents.Assignments))
			for i := range contents.Assignments {
				assignments[i] = &contents.Assignments[i]
			}
			if err := lists.CreateAssignments(ctx, assignments); err != nil {
				return fmt.Errorf("import assignments: %w", err)
			}
		}
		stats.Assignments = len(contents.Assignments)

		for i := range contents.Documents {
			header := &contents.Documents[i]
			if err := documents.SaveDocument(ctx, header, contents.Lines[header.ID]); err != nil {
				return fmt.Errorf("import document %s: %w", header.Number, err)
			}
		}
		stats.Documents = len(contents.Documents)

		for _, entry := range contents.AuditLog {
			if err := auditLog.Record(ctx, entry); err != nil {
				return fmt.Errorf("import audit entry: %w", err)
			}
		}
		stats.AuditEntries = len(contents.AuditLog)
		return nil
	})
	if err != nil {
		logger.Error("Snapshot import failed", zap.Error(err))
		return ImportStats{}, err
	}

	logger.Info("Snapshot imported",
		zap.Int("products", stats.Products),
		zap.Int("price_lists", stats.PriceLists),
		zap.Int("entries", stats.Entries),
		zap.Int("documents", stats.Documents),
	)
	return stats, nil
}
