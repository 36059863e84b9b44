package telemetry

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the pricing instruments
const MeterName = "github.com/erp/pricing"

// PricingMetrics records resolution and mutation observations.
// It satisfies the Metrics ports of both the resolution and the price list services.
type PricingMetrics struct {
	resolutions *Counter
	duration    *DurationHistogram
	bulkRows    *Counter
	generated   *Counter
}

// NewPricingMetrics creates the pricing instruments on meter
func NewPricingMetrics(meter metric.Meter) (*PricingMetrics, error) {
	resolutions, err := NewCounter(meter, "pricing_resolutions_total",
		"Price resolutions by strategy and outcome", "{resolution}")
	if err != nil {
		return nil, err
	}
	duration, err := NewDurationHistogram(meter, "pricing_resolution_duration_seconds",
		"Time spent resolving one price", ResolutionDurationBuckets)
	if err != nil {
		return nil, err
	}
	bulkRows, err := NewCounter(meter, "pricing_bulk_rows_total",
		"Entries touched by bulk price transforms", "{row}")
	if err != nil {
		return nil, err
	}
	generated, err := NewCounter(meter, "pricing_generated_products_total",
		"Products priced or skipped by historical generation", "{product}")
	if err != nil {
		return nil, err
	}
	return &PricingMetrics{
		resolutions: resolutions,
		duration:    duration,
		bulkRows:    bulkRows,
		generated:   generated,
	}, nil
}

// RecordResolution counts one resolution and records its latency
func (m *PricingMetrics) RecordResolution(ctx context.Context, strategy string, fallback bool, err error, elapsed time.Duration) {
	m.resolutions.Inc(ctx,
		AttrStrategy.String(strategy),
		AttrFallback.String(strconv.FormatBool(fallback)),
		AttrOutcome.String(outcome(err)),
	)
	m.duration.Observe(ctx, elapsed, AttrStrategy.String(strategy))
}

// RecordBulkRows counts updated and failed rows of one committed transform
func (m *PricingMetrics) RecordBulkRows(ctx context.Context, operation string, updated, failed int) {
	m.bulkRows.AddCount(ctx, updated, AttrOperation.String(operation), AttrResult.String("updated"))
	m.bulkRows.AddCount(ctx, failed, AttrOperation.String(operation), AttrResult.String("failed"))
}

// RecordGeneration counts priced and skipped products of one generation run
func (m *PricingMetrics) RecordGeneration(ctx context.Context, strategy string, products, skipped int) {
	m.generated.AddCount(ctx, products, AttrStrategy.String(strategy), AttrResult.String("generated"))
	m.generated.AddCount(ctx, skipped, AttrStrategy.String(strategy), AttrResult.String("skipped"))
}

// outcome buckets errors by domain kind so label cardinality stays fixed
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, shared.ErrNoDataAvailable):
		return "no_data"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
