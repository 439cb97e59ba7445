package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/r6lens/r6lens/internal/observability"
	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
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

// EndpointPattern returns the chi route pattern for r, falling back to a
// coarse bucket so raw player names never become metric labels.
func EndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	switch {
	case path == "/", path == "/version", path == "/metrics":
		return path
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return "/health/*"
	case strings.HasPrefix(path, "/v1/stats/"):
		return "/v1/stats/*"
	case strings.HasPrefix(path, "/v1/leaderboard/"):
		return "/v1/leaderboard/*"
	case path == "/v1/ratelimit":
		return path
	default:
		return "/unknown"
	}
}

// HTTP metric names, shared with the gofulmen server conventions.
const (
	httpRequestsTotal     = "http_requests_total"
	httpRequestDuration   = "http_request_duration_ms"
	httpRequestSizeBytes  = "http_request_size_bytes"
	httpResponseSizeBytes = "http_response_size_bytes"
	httpErrorsTotal       = "http_errors_total"
)

// errorClass buckets a failed status. 429 gets its own class because the
// facade answers fail-fast quota rejections with it.
func errorClass(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

// RequestMetrics records count, latency and payload sizes per route pattern
// and logs each completed request with its request ID.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sys := observability.TelemetrySystem
		if sys == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		requestSize := r.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}

		endpoint := EndpointPattern(r)
		status := strconv.Itoa(wrapped.statusCode)
		labels := map[string]string{"method": r.Method, "endpoint": endpoint, "status": status}
		sizeLabels := map[string]string{"method": r.Method, "endpoint": endpoint}

		_ = sys.Counter(httpRequestsTotal, 1, labels)
		_ = sys.Histogram(httpRequestDuration, duration, labels)
		_ = sys.Gauge(httpRequestSizeBytes, float64(requestSize), sizeLabels)
		_ = sys.Gauge(httpResponseSizeBytes, float64(wrapped.bytesWritten), sizeLabels)

		if wrapped.statusCode >= 400 {
			_ = sys.Counter(httpErrorsTotal, 1, map[string]string{
				"method":     r.Method,
				"endpoint":   endpoint,
				"status":     status,
				"error_type": errorClass(wrapped.statusCode),
			})
		}

		if logger := observability.ServerLogger; logger != nil {
			logger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("request_size", requestSize),
				zap.Int64("response_size", wrapped.bytesWritten),
				zap.String("request_id", GetRequestID(r.Context())))
		}
	})
}
