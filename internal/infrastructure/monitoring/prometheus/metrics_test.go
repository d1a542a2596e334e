package prometheus

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.WorkerMessagesTotal)
	assert.NotNil(t, m.WorkerDeadLettersTotal)
	assert.NotNil(t, m.EngineReloadsTotal)
	assert.NotNil(t, m.HealthCheckStatus)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, http.MethodPost, "/api/v1/analyze", 200, 40*time.Millisecond, 2048)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/api/v1/analyze",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_response_size_bytes_sum{method="POST",path="/api/v1/analyze"} 2048`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/api/v1/analyze"} 1`)
}

func TestRecordWorkerMessageAndDeadLetter(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordWorkerMessage(m, "rephrase.sentences", "ok", 10*time.Millisecond)
	RecordWorkerMessage(m, "rephrase.sentences", "dead_letter", 10*time.Millisecond)
	RecordDeadLetter(m, "rephrase.sentences.dlq", "GRAM_001")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_worker_messages_total{status="ok",topic="rephrase.sentences"} 1`)
	assert.Contains(t, output, `test_unit_worker_dead_letters_total{error_code="GRAM_001",topic="rephrase.sentences.dlq"} 1`)
	assert.Contains(t, output, `test_unit_worker_message_duration_seconds_count{topic="rephrase.sentences"} 2`)
}

func TestRecordEngineReload(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordEngineReload(m, "api", 10)
	RecordEngineReload(m, "config", 9)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_engine_reloads_total{source="api"} 1`)
	assert.Contains(t, output, "test_unit_engine_active_handlers 9")
}

func TestSetHealthAndRecordError(t *testing.T) {
	m, c := newTestAppMetrics(t)
	SetHealth(m, "parser", true)
	SetHealth(m, "cache", false)
	RecordError(m, "http", "GRAM_003")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_health_check_status{component="parser"} 1`)
	assert.Contains(t, output, `test_unit_health_check_status{component="cache"} 0`)
	assert.Contains(t, output, `test_unit_errors_total{component="http",error_code="GRAM_003"} 1`)
}

//Personal.AI order the ending
