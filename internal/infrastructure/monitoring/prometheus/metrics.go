package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the service-level metrics.  Per-sentence engine metrics
// live with the engine and register through MetricsCollector.Registerer.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec
	HTTPRateLimited     CounterVec

	// Sentence worker
	WorkerMessagesTotal    CounterVec
	WorkerMessageDuration  HistogramVec
	WorkerInFlight         GaugeVec
	WorkerDeadLettersTotal CounterVec
	WorkerPublishFailures  CounterVec

	// Handler set
	EngineReloadsTotal   CounterVec
	EngineActiveHandlers GaugeVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultWorkerDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultSizeBuckets           = []float64{100, 1000, 10000, 100000, 1000000}
)

// NewAppMetrics registers all service metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response size", DefaultSizeBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")
	m.HTTPRateLimited = collector.RegisterCounter("http_rate_limited_total", "Requests rejected by the rate limiter", "path")

	// Worker
	m.WorkerMessagesTotal = collector.RegisterCounter("worker_messages_total", "Sentence messages consumed", "topic", "status")
	m.WorkerMessageDuration = collector.RegisterHistogram("worker_message_duration_seconds", "Sentence message processing duration", DefaultWorkerDurationBuckets, "topic")
	m.WorkerInFlight = collector.RegisterGauge("worker_in_flight", "Sentence messages currently processing", "topic")
	m.WorkerDeadLettersTotal = collector.RegisterCounter("worker_dead_letters_total", "Messages routed to the dead-letter topic", "topic", "error_code")
	m.WorkerPublishFailures = collector.RegisterCounter("worker_publish_failures_total", "Result publish failures", "topic")

	// Handler set
	m.EngineReloadsTotal = collector.RegisterCounter("engine_reloads_total", "Engine rebuilds after handler-set changes", "source")
	m.EngineActiveHandlers = collector.RegisterGauge("engine_active_handlers", "Number of active grammar handlers")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration, respSize int64) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordWorkerMessage counts one consumed message; status is "ok",
// "failed" or "dead_letter".
func RecordWorkerMessage(metrics *AppMetrics, topic, status string, duration time.Duration) {
	metrics.WorkerMessagesTotal.WithLabelValues(topic, status).Inc()
	metrics.WorkerMessageDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func RecordDeadLetter(metrics *AppMetrics, topic, errorCode string) {
	metrics.WorkerDeadLettersTotal.WithLabelValues(topic, errorCode).Inc()
}

// RecordEngineReload notes a handler-set swap; source is "api" or "config".
func RecordEngineReload(metrics *AppMetrics, source string, activeHandlers int) {
	metrics.EngineReloadsTotal.WithLabelValues(source).Inc()
	metrics.EngineActiveHandlers.WithLabelValues().Set(float64(activeHandlers))
}

func SetHealth(metrics *AppMetrics, component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func RecordError(metrics *AppMetrics, component, errorCode string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}

//Personal.AI order the ending
