package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
)

func scrape(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func newObservedLogger() (logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewLoggerFromCore(core), logs
}

func TestRequestLogging_LevelsAndMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "mw"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)
	logger, logs := newObservedLogger()

	r := chi.NewRouter()
	r.Use(RequestLogging(logger, metrics, DefaultLoggingConfig()))
	r.Get("/api/v1/handlers/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "bogus" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("hello"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/api/v1/handlers/passive", "/api/v1/handlers/bogus", "/boom", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3, "probe paths are not logged")
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(5), entries[0].ContextMap()["bytes"])

	body := scrape(t, collector)
	assert.Contains(t, body, `mw_http_requests_total{method="GET",path="/api/v1/handlers/{id}",status_code="200"} 1`)
	assert.Contains(t, body, `mw_http_requests_total{method="GET",path="/api/v1/handlers/{id}",status_code="404"} 1`)
	assert.Contains(t, body, `mw_http_requests_total{method="GET",path="/boom",status_code="502"} 1`)
	assert.NotContains(t, body, `path="/healthz"`)
}

func TestRequestLogging_NilCollaborators(t *testing.T) {
	handler := RequestLogging(nil, nil, LoggingConfig{})(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWrappedResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	w := newWrappedResponseWriter(rec)
	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte("abc"))
	assert.Equal(t, http.StatusCreated, w.statusCode)
	assert.Equal(t, int64(3), w.bytesWritten)
}

//Personal.AI order the ending
