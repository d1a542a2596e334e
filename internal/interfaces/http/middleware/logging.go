// Package middleware holds the HTTP middleware of the analysis API: request
// logging with Prometheus accounting, CORS and per-client rate limiting.
package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are neither logged nor counted (probes, scrapes).
	SkipPaths []string

	// SlowThreshold promotes successful requests above it to Warn.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips the probe and scrape endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 2 * time.Second,
	}
}

// wrappedResponseWriter captures the status code and bytes written.
type wrappedResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newWrappedResponseWriter(w http.ResponseWriter) *wrappedResponseWriter {
	return &wrappedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *wrappedResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *wrappedResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

func (w *wrappedResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func (w *wrappedResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// routePattern labels metrics by the matched chi pattern so that path
// parameters such as handler ids do not create new series.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RequestLogging logs every request and records it in metrics.  metrics may
// be nil.
func RequestLogging(logger logging.Logger, metrics *prometheus.AppMetrics, config LoggingConfig) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("http")
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			if metrics != nil {
				metrics.HTTPActiveRequests.WithLabelValues(r.Method).Inc()
				defer metrics.HTTPActiveRequests.WithLabelValues(r.Method).Dec()
			}

			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			duration := time.Since(start)

			if metrics != nil {
				prometheus.RecordHTTPRequest(metrics, r.Method, routePattern(r), wrapped.statusCode, duration, wrapped.bytesWritten)
			}

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.statusCode),
				logging.Float64("duration_ms", float64(duration.Microseconds())/1000),
				logging.Int64("bytes", wrapped.bytesWritten),
				logging.String("remote_addr", r.RemoteAddr),
				logging.String(logging.KeyRequestID, chimw.GetReqID(r.Context())),
			}
			if ua := r.UserAgent(); ua != "" {
				fields = append(fields, logging.String("user_agent", ua))
			}

			switch {
			case wrapped.statusCode >= 500:
				logger.Error("request completed with server error", fields...)
			case wrapped.statusCode >= 400:
				logger.Warn("request completed with client error", fields...)
			case config.SlowThreshold > 0 && duration >= config.SlowThreshold:
				logger.Warn("request completed (slow)", fields...)
			default:
				logger.Info("request completed", fields...)
			}
		})
	}
}

//Personal.AI order the ending
