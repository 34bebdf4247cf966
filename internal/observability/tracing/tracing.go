// Package tracing wires OpenTelemetry into the HTTP stack. Incoming
// W3C traceparent headers are honored so spans join the caller's
// trace, and the trace ID is echoed back in X-Trace-Id so clients can
// quote it in support tickets.
package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("claim-navigator")

// GetTracer returns the application tracer for creating child spans
// inside services and stores.
func GetTracer() trace.Tracer {
	return tracer
}

// statusRecorder remembers the status code so it can be attached to
// the span after the handler returns.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware opens a server span per request. The span is named
// "METHOD /path" and carries the method, path and final status code;
// 5xx responses additionally get an error attribute so trace backends
// can surface them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
			attribute.Int("http.status_code", rec.status),
		)
		if rec.status >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
		}
	})
}
