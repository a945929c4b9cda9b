package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"aqdash/internal/infrastructure"
)

// MetricsMiddleware records HTTP request metrics for every request
type MetricsMiddleware struct {
	metrics *infrastructure.DashboardMetrics
	logger  *slog.Logger
}

// NewMetricsMiddleware creates a new metrics middleware from the shared
// meter provider
func NewMetricsMiddleware(providers *infrastructure.MetricsProviders) (*MetricsMiddleware, error) {
	m, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	return &MetricsMiddleware{
		metrics: m,
		logger:  providers.Logger,
	}, nil
}

// Metrics exposes the underlying instrument set so services can record
// domain metrics without creating a second set
func (m *MetricsMiddleware) Metrics() *infrastructure.DashboardMetrics {
	return m.metrics
}

// Handler returns the middleware handler function
func (m *MetricsMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ww := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.metrics.HTTPActiveRequests.Add(ctx, 1)
		defer m.metrics.HTTPActiveRequests.Add(ctx, -1)

		start := time.Now()

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		attrs := []attribute.KeyValue{
			attribute.String("method", r.Method),
			attribute.String("route", getRoutePattern(r)),
			attribute.Int("status_code", ww.statusCode),
		}

		m.metrics.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		m.metrics.HTTPRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	})
}

// responseWriter wraps http.ResponseWriter to capture response details
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// getRoutePattern extracts the route pattern from request context. Metrics
// are labelled with the pattern, not the raw path, to keep cardinality down.
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

type dashboardMetricsKey struct{}

// DashboardMetricsMiddleware makes the shared instrument set available to
// handlers through the request context
func DashboardMetricsMiddleware(metrics *infrastructure.DashboardMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), dashboardMetricsKey{}, metrics)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDashboardMetricsFromContext extracts the instrument set from request context
func GetDashboardMetricsFromContext(ctx context.Context) *infrastructure.DashboardMetrics {
	if metrics, ok := ctx.Value(dashboardMetricsKey{}).(*infrastructure.DashboardMetrics); ok {
		return metrics
	}
	return nil
}

// RecordSystemError records a system error metric when the instrument set
// is present in the context
func RecordSystemError(ctx context.Context, errorType, component string) {
	if metrics := GetDashboardMetricsFromContext(ctx); metrics != nil {
		metrics.SystemErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error_type", errorType),
			attribute.String("component", component),
		))
	}
}

// GetRealIP extracts the real IP address from the request
func GetRealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
