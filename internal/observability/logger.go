package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	logKeyTraceID = "trace_id"
	logKeySpanID  = "span_id"
	logKeyOp      = "op"
	logKeyService = "service"
	logKeyMode    = "mode"
)

type operationKey struct{}

// WithOperation tags ctx with the operation being served. Records logged
// with the returned context carry it under "op".
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFrom returns the operation set by WithOperation.
func OperationFrom(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(operationKey{}).(string)

	return op, ok
}

// ContextHandler is an [slog.Handler] that adds what the record's context
// knows: the current span and the operation set by WithOperation. These
// attributes land in the innermost open group.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: inner}
}

// Handle decorates record and passes it on.
func (ch *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logKeyTraceID, sc.TraceID().String()),
			slog.String(logKeySpanID, sc.SpanID().String()),
		)
	}

	if op, ok := OperationFrom(ctx); ok {
		record.AddAttrs(slog.String(logKeyOp, op))
	}

	return ch.Handler.Handle(ctx, record)
}

func (ch *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: ch.Handler.WithAttrs(attrs)}
}

func (ch *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: ch.Handler.WithGroup(name)}
}
