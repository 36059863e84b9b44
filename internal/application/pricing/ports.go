package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metrics receives resolution observations
type Metrics interface {
	RecordResolution(ctx context.Context, strategy string, fallback bool, err error, elapsed time.Duration)
}

// ResolutionCache stores encoded resolutions keyed by request.
// Get reports the generation it read under; SetAt ignores writes for a
// generation that has since been invalidated.
type ResolutionCache interface {
	Get(ctx context.Context, key string) ([]byte, uint64, bool, error)
	SetAt(ctx context.Context, generation uint64, key string, value []byte) error
}

type noopMetrics struct{}

func (noopMetrics) RecordResolution(context.Context, string, bool, error, time.Duration) {}

// NoopMetrics discards observations
var NoopMetrics Metrics = noopMetrics{}

// trace accumulates search-path steps
type trace []string

func (t *trace) addf(format string, args ...any) {
	*t = append(*t, fmt.Sprintf(format, args...))
}

func (t trace) steps() []string {
	return append([]string(nil), t...)
}

func idOrNone[T fmt.Stringer](id *T) string {
	if id == nil {
		return "-"
	}
	return (*id).String()
}

// cacheKey normalises the evaluation instant to the minute
func cacheKey(req PriceRequest, at time.Time) string {
	mode := "-"
	if req.Mode != nil {
		mode = req.Mode.String()
	}
	manual := "-"
	if req.ManualPrice != nil {
		manual = req.ManualPrice.String()
	}
	parts := []string{
		req.ProductID.String(),
		mode,
		idOrNone(req.BusinessPartyID),
		idOrNone(req.EventID),
		idOrNone(req.ForcedPriceListID),
		manual,
		req.Quantity.String(),
		at.UTC().Truncate(time.Minute).Format(time.RFC3339),
		req.UnitCode,
	}
	return strings.Join(parts, "|")
}

func isPositive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
