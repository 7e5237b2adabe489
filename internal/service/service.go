// Package service is the instrumented entry point shared by the CLI, the MCP
// server and the HTTP server. It wraps every reconstruction in a span, records
// operation and volume metrics and keeps recent reconstructions in an LRU cache.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
	"github.com/Sumatoshi-tech/bracketorder/pkg/ordertree"
)

// Operation names used for spans and metrics.
const (
	OpReconstruct = "reconstruct"
	OpCompare     = "compare"
)

// ErrUnknownEntrant is returned by Compare for an entrant that never played.
var ErrUnknownEntrant = errors.New("unknown entrant")

// Options tunes one call.
type Options struct {
	// SortMatches reorders matches within rounds before reconstructing.
	SortMatches bool
}

// Deps holds injectable dependencies. Zero-value fields use no-op defaults.
type Deps struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// CacheSize is the number of reconstructions kept for reuse. Zero disables
	// the cache.
	CacheSize int

	// HibernationThreshold is the arena size from which a cached order is
	// compressed while idle. Zero hibernates every cached order.
	HibernationThreshold int
}

// Service runs reconstructions.
type Service struct {
	tracer    trace.Tracer
	logger    *slog.Logger
	metrics   *observability.Metrics
	cache     *lru.Cache[uint64, *entry]
	threshold int
}

// entry is one cached reconstruction. The reconstructor boots its arena on
// access, so every use holds mu.
type entry struct {
	mu     sync.Mutex
	rec    *bracket.Reconstructor
	result bracket.Result
}

// New creates a Service.
func New(deps Deps) (*Service, error) {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	meter := deps.Meter
	if meter == nil {
		meter = noopmetric.NewMeterProvider().Meter("")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	metrics, err := observability.NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("service metrics: %w", err)
	}

	svc := &Service{
		tracer:    tracer,
		logger:    logger,
		metrics:   metrics,
		threshold: deps.HibernationThreshold,
	}

	if deps.CacheSize > 0 {
		svc.cache, err = lru.New[uint64, *entry](deps.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("reconstruction cache: %w", err)
		}
	}

	return svc, nil
}

// Metrics exposes the instruments so transports can record their own
// operations next to the service ones.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// Reconstruct rebuilds the bracket described by rounds.
func (s *Service) Reconstruct(ctx context.Context, rounds []bracket.Round, opts Options) (bracket.Result, error) {
	var result bracket.Result

	err := s.instrument(ctx, OpReconstruct, func(ctx context.Context, span trace.Span) error {
		found, err := s.build(ctx, rounds, opts)
		if err != nil {
			return err
		}

		found.mu.Lock()
		result = found.result
		found.mu.Unlock()

		span.SetAttributes(
			attribute.Int("bracket.entrants", len(result.Order)),
			attribute.Int("bracket.links", len(result.Links)),
		)

		return nil
	})

	return result, err
}

// Comparison is the answer of Compare.
type Comparison struct {
	A     string `json:"a"      yaml:"a"`
	B     string `json:"b"      yaml:"b"`
	Order int    `json:"order"  yaml:"order"`
	RankA int    `json:"rank_a" yaml:"rank_a"`
	RankB int    `json:"rank_b" yaml:"rank_b"`
}

// Compare reconstructs rounds and orders entrants a and b: Order is -1, 0 or 1
// as a is placed before, at, or after b.
func (s *Service) Compare(ctx context.Context, rounds []bracket.Round, a, b string, opts Options) (Comparison, error) {
	var cmp Comparison

	err := s.instrument(ctx, OpCompare, func(ctx context.Context, span trace.Span) error {
		found, err := s.build(ctx, rounds, opts)
		if err != nil {
			return err
		}

		found.mu.Lock()
		defer found.mu.Unlock()

		for _, id := range []string{a, b} {
			if _, ok := found.result.Ranks[id]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownEntrant, id)
			}
		}

		order, err := found.rec.Compare(a, b)
		if err != nil {
			return fmt.Errorf("compare %q and %q: %w", a, b, err)
		}

		s.hibernate(found)

		cmp = Comparison{
			A:     a,
			B:     b,
			Order: order,
			RankA: found.result.Ranks[a],
			RankB: found.result.Ranks[b],
		}

		span.SetAttributes(attribute.Int("bracket.order", order))

		return nil
	})

	return cmp, err
}

func (s *Service) instrument(
	ctx context.Context, op string, run func(context.Context, trace.Span) error,
) error {
	ctx, span := s.tracer.Start(observability.WithOperation(ctx, op), "bracketorder."+op)
	defer span.End()

	end := s.metrics.Begin(ctx, op)

	err := run(ctx, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "bracket operation failed", "error", err)
	}

	end(err != nil)

	return err
}

// build returns the reconstruction for rounds, from the cache when possible.
func (s *Service) build(ctx context.Context, rounds []bracket.Round, opts Options) (*entry, error) {
	key, keyErr := cacheKey(rounds, opts)

	if s.cache != nil && keyErr == nil {
		found, ok := s.cache.Get(key)
		s.metrics.RecordLookup(ctx, ok)

		if ok {
			s.logger.DebugContext(ctx, "reconstruction cache hit", "key", key)

			return found, nil
		}
	}

	input := rounds
	if opts.SortMatches {
		input = bracket.SortMatches(rounds)
	}

	arena := ordertree.NewArena()
	arena.HibernationThreshold = s.threshold

	rec, err := bracket.Reconstruct(input, bracket.Options{Logger: s.logger, Arena: arena})
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}

	built := &entry{rec: rec, result: rec.Result()}

	s.metrics.RecordBracket(ctx, observability.BracketStats{
		Rounds:   len(input),
		Matches:  len(rec.Matches()),
		Entrants: len(built.result.Order),
		Links:    len(built.result.Links),
	})

	s.logger.InfoContext(ctx, "bracket reconstructed",
		"rounds", len(input),
		"entrants", len(built.result.Order),
		"links", len(built.result.Links),
	)

	if s.cache != nil && keyErr == nil {
		s.hibernate(built)
		s.cache.Add(key, built)
	}

	return built, nil
}

// hibernate compresses an idle cached order. Failure only costs memory.
func (s *Service) hibernate(found *entry) {
	if s.cache == nil {
		return
	}

	err := found.rec.Order().Hibernate()
	if err != nil {
		s.logger.Warn("hibernate cached order", "error", err)
	}
}

func cacheKey(rounds []bracket.Round, opts Options) (uint64, error) {
	data, err := json.Marshal(struct {
		Rounds []bracket.Round `json:"rounds"`
		Sort   bool            `json:"sort"`
	}{rounds, opts.SortMatches})
	if err != nil {
		return 0, fmt.Errorf("cache key: %w", err)
	}

	return xxhash.Sum64(data), nil
}
