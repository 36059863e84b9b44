package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the pricing instruments
var (
	AttrStrategy  = attribute.Key("strategy")
	AttrFallback  = attribute.Key("fallback")
	AttrOutcome   = attribute.Key("outcome")
	AttrOperation = attribute.Key("operation")
	AttrResult    = attribute.Key("result")
)

// ResolutionDurationBuckets are bucket boundaries for price resolution latency (seconds).
var ResolutionDurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1}

// Counter is a monotonically increasing Int64 instrument.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter named name on meter.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Inc adds one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// AddCount adds n; non-positive counts are dropped.
func (c *Counter) AddCount(ctx context.Context, n int, attrs ...attribute.KeyValue) {
	if n <= 0 {
		return
	}
	c.counter.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// DurationHistogram records latencies in seconds.
type DurationHistogram struct {
	histogram metric.Float64Histogram
}

// NewDurationHistogram creates a seconds histogram; nil buckets keep the SDK defaults.
func NewDurationHistogram(meter metric.Meter, name, description string, buckets []float64) (*DurationHistogram, error) {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(description),
		metric.WithUnit("s"),
	}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := meter.Float64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return &DurationHistogram{histogram: h}, nil
}

// Observe records d.
func (h *DurationHistogram) Observe(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}
