package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	httpMeter        = otel.Meter("fintrack/http")
	routeDuration, _ = httpMeter.Float64Histogram("fintrack.http.route.duration",
		metric.WithDescription("Request duration per matched route in seconds"),
		metric.WithUnit("s"),
	)
	routeErrors, _ = httpMeter.Int64Counter("fintrack.http.route.errors",
		metric.WithDescription("Responses with a 4xx or 5xx status per matched route"),
	)
)

// unmatchedRoute labels requests the mux did not route.
const unmatchedRoute = "unmatched"

// Tracing annotates the active request span with the matched route, the
// authenticated user and the response status, and records per-route
// metrics. It expects Telemetry (otelhttp) to have started the span.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		req, info := withRequestInfo(r)
		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, req)

		// ServeMux records the matched pattern on the request it was given.
		route := req.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		status := wrapped.statusOrOK()

		span := trace.SpanFromContext(req.Context())
		if req.Pattern != "" {
			span.SetName(req.Pattern)
		}
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if info.userID != "" {
			span.SetAttributes(attribute.String("enduser.id", info.userID))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		attrs := metric.WithAttributes(attribute.String("http.route", route))
		routeDuration.Record(req.Context(), time.Since(start).Seconds(), attrs)
		if status >= http.StatusBadRequest {
			routeErrors.Add(req.Context(), 1, attrs,
				metric.WithAttributes(attribute.String("http.status_class", statusClass(status))),
			)
		}
	})
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
