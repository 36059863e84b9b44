package pricelist

import (
	"context"

	"github.com/erp/pricing/internal/domain/audit"
	"github.com/erp/pricing/internal/domain/pricelist"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TxRunner runs fn in one all-or-nothing storage transaction.
// The writer and audit sink handed to fn are bound to that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error) error
}

// CacheInvalidator drops cached price resolutions after a committed mutation
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Metrics receives mutation observations
type Metrics interface {
	RecordBulkRows(ctx context.Context, operation string, updated, failed int)
	RecordGeneration(ctx context.Context, strategy string, products, skipped int)
}

type noopMetrics struct{}

func (noopMetrics) RecordBulkRows(context.Context, string, int, int)   {}
func (noopMetrics) RecordGeneration(context.Context, string, int, int) {}

// NoopMetrics discards observations
var NoopMetrics Metrics = noopMetrics{}

// Errors shared by the mutation services
var (
	ErrPriceListNotFound     = shared.NewNotFoundError("PRICE_LIST_NOT_FOUND", "Price list not found")
	ErrBusinessPartyNotFound = shared.NewNotFoundError("BUSINESS_PARTY_NOT_FOUND", "Business party not found")
)

const defaultActor = "system"

func actorOrDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}

// mutation carries the optional collaborators every mutating service shares
type mutation struct {
	tx          TxRunner
	invalidator CacheInvalidator
	metrics     Metrics
	clock       shared.Clock
	logger      *zap.Logger
}

func newMutation(tx TxRunner, clock shared.Clock, logger *zap.Logger) mutation {
	return mutation{tx: tx, metrics: NoopMetrics, clock: clock, logger: logger}
}

// commit runs fn in one transaction traced as price_list.<operation>
func (m *mutation) commit(ctx context.Context, operation string, fn func(ctx context.Context, w pricelist.Writer, sink audit.Sink) error) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "price_list", operation)
	err := m.tx.RunInTx(ctx, fn)
	telemetry.End(span, err)
	return err
}

// invalidate drops cached resolutions; a cache failure never fails a committed mutation
func (m *mutation) invalidate(ctx context.Context) {
	if m.invalidator == nil {
		return
	}
	if err := m.invalidator.Invalidate(ctx); err != nil {
		m.logger.Warn("Failed to invalidate resolution cache", zap.Error(err))
	}
}
