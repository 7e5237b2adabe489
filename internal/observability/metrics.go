package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation metrics carry an op attribute. Bracket metrics are recorded
// once per reconstruction that actually ran, so cache hits do not count.
const (
	metricOperations = "bracketorder.operations.total"
	metricFailures   = "bracketorder.operations.failed.total"
	metricLatency    = "bracketorder.operation.duration.seconds"
	metricInflight   = "bracketorder.operations.inflight"

	metricRounds   = "bracketorder.reconstruct.rounds.total"
	metricMatches  = "bracketorder.reconstruct.matches.total"
	metricEntrants = "bracketorder.reconstruct.entrants.total"
	metricLinks    = "bracketorder.reconstruct.links.total"
	metricLookups  = "bracketorder.cache.lookups.total"

	attrOp     = "op"
	attrFailed = "failed"
	attrHit    = "hit"
)

// latencyBounds spans 100µs to 10s. A reconstruction of a few thousand
// entrants finishes in the low milliseconds.
var latencyBounds = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// BracketStats describes one finished reconstruction.
type BracketStats struct {
	Rounds   int
	Matches  int
	Entrants int
	Links    int
}

// Metrics holds the instruments bracketorder records: the rate, failures and
// latency of every operation, and the volume of the brackets reconstructed.
// All methods are no-ops on a nil receiver.
type Metrics struct {
	operations metric.Int64Counter
	failures   metric.Int64Counter
	latency    metric.Float64Histogram
	inflight   metric.Int64UpDownCounter

	rounds   metric.Int64Counter
	matches  metric.Int64Counter
	entrants metric.Int64Counter
	links    metric.Int64Counter
	lookups  metric.Int64Counter
}

// NewMetrics creates the instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	b := instruments{meter: mt}

	m := &Metrics{
		operations: b.counter(metricOperations, "Operations handled", "{operation}"),
		failures:   b.counter(metricFailures, "Operations that failed", "{operation}"),
		latency:    b.histogram(metricLatency, "Operation duration", "s", latencyBounds),
		inflight:   b.upDownCounter(metricInflight, "Operations in progress", "{operation}"),

		rounds:   b.counter(metricRounds, "Rounds consumed by reconstructions", "{round}"),
		matches:  b.counter(metricMatches, "Match nodes created by reconstructions", "{match}"),
		entrants: b.counter(metricEntrants, "Entrants placed in the order", "{entrant}"),
		links:    b.counter(metricLinks, "Advancement edges found", "{link}"),
		lookups:  b.counter(metricLookups, "Reconstruction cache lookups", "{lookup}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return m, nil
}

// Begin marks op as in progress. The returned function ends it and records
// its latency; failed counts it against the failure total.
func (m *Metrics) Begin(ctx context.Context, op string) func(failed bool) {
	if m == nil {
		return func(bool) {}
	}

	start := time.Now()
	byOp := metric.WithAttributes(attribute.String(attrOp, op))

	m.inflight.Add(ctx, 1, byOp)

	return func(failed bool) {
		m.inflight.Add(ctx, -1, byOp)

		outcome := metric.WithAttributes(attribute.String(attrOp, op), attribute.Bool(attrFailed, failed))
		m.operations.Add(ctx, 1, outcome)
		m.latency.Record(ctx, time.Since(start).Seconds(), outcome)

		if failed {
			m.failures.Add(ctx, 1, byOp)
		}
	}
}

// RecordBracket adds the volume of one reconstruction.
func (m *Metrics) RecordBracket(ctx context.Context, stats BracketStats) {
	if m == nil {
		return
	}

	m.rounds.Add(ctx, int64(stats.Rounds))
	m.matches.Add(ctx, int64(stats.Matches))
	m.entrants.Add(ctx, int64(stats.Entrants))
	m.links.Add(ctx, int64(stats.Links))
}

// RecordLookup counts a reconstruction cache lookup.
func (m *Metrics) RecordLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}

	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool(attrHit, hit)))
}

// instruments creates OTel instruments and keeps the first creation error,
// so NewMetrics checks once.
type instruments struct {
	meter metric.Meter
	err   error
}

func (b *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.keep(name, err)

	return c
}

func (b *instruments) upDownCounter(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.keep(name, err)

	return c
}

func (b *instruments) histogram(name, desc, unit string, bounds []float64) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	b.keep(name, err)

	return h
}

func (b *instruments) keep(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}
