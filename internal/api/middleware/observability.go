package middleware

import (
	"net/http"
	"time"

	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityMiddleware traces each request, continuing any incoming
// trace context, and records request metrics keyed by route pattern.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		record := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r)

			// ServeMux sets Pattern on the request it was handed
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}

			span := trace.SpanFromContext(r.Context())
			span.SetName(route)
			observability.SetSpanAttributes(span, attribute.String("http.route", route))

			observability.RecordRequestMetric(r.Context(), metrics, r.Method, route, rw.statusCode, time.Since(start))
		})

		return otelhttp.NewHandler(record, "http.server")
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
