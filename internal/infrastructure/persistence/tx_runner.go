package persistence

import (
	"context"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/pricelist"
	"gorm.io/gorm"
)

// GormTxRunner runs pricing mutations inside one database transaction.
// The writer and sink it hands out are bound to that transaction, so a
// failure anywhere rolls back the list rows and the audit entry together.
type GormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner creates a new GormTxRunner
func NewGormTxRunner(db *gorm.DB) *GormTxRunner {
	return &GormTxRunner{db: db}
}

// RunInTx executes fn in a transaction, committing only when fn returns nil
func (r *GormTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(ctx, NewGormPriceListRepository(tx), NewGormAuditRepository(tx)); err != nil {
			return err
		}
		return ctx.Err()
	})
}
