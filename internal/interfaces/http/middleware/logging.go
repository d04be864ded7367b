// Package middleware holds the HTTP middleware chain.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medledger/claimguard/internal/infrastructure/monitoring/logging"
)

// HTTPMetrics records one served request; the prometheus adapter implements
// it.
type HTTPMetrics interface {
	ObserveHTTP(method, route string, status int, duration time.Duration)
}

// LoggingMiddleware logs every request and feeds the HTTP metrics.
type LoggingMiddleware struct {
	logger  logging.Logger
	metrics HTTPMetrics
}

// NewLoggingMiddleware constructs the middleware.  metrics may be nil.
func NewLoggingMiddleware(log logging.Logger, metrics HTTPMetrics) *LoggingMiddleware {
	return &LoggingMiddleware{logger: log, metrics: metrics}
}

// Handler wraps next with request logging.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		route := routePattern(r)

		m.logger.Info("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("duration", duration),
			logging.String("requestId", chimw.GetReqID(r.Context())),
		)
		if m.metrics != nil {
			m.metrics.ObserveHTTP(r.Method, route, ww.Status(), duration)
		}
	})
}

// routePattern resolves the chi route template so metrics label cardinality
// stays bounded.  Falls back to the raw path outside a chi context.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
