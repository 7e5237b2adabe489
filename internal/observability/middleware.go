package observability

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// recorder remembers the first status written through it.
type recorder struct {
	http.ResponseWriter

	status int
}

func (rec *recorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}

	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(buf []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}

	n, err := rec.ResponseWriter.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// Route instruments the handler registered under pattern, a ServeMux pattern
// such as "POST /v1/reconstruct". Each request gets a server span named after
// the pattern, continuing any W3C trace context in the headers, and is counted
// as the pattern's operation. Responses of 500 and above fail the span and
// the operation.
func Route(tracer trace.Tracer, metrics *Metrics, pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		parent := otel.GetTextMapPropagator().Extract(hr.Context(), propagation.HeaderCarrier(hr.Header))

		ctx, span := tracer.Start(parent, pattern,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				semconv.HTTPRoute(pattern),
			),
		)
		defer span.End()

		end := metrics.Begin(ctx, pattern)

		rec := &recorder{ResponseWriter: rw}
		next.ServeHTTP(rec, hr.WithContext(WithOperation(ctx, pattern)))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		span.SetAttributes(semconv.HTTPResponseStatusCode(rec.status))

		failed := rec.status >= http.StatusInternalServerError
		if failed {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		end(failed)
	})
}
