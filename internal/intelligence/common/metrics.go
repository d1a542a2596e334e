package common

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// GrammarMetrics is the telemetry API of the analysis layer.  The engine,
// the parse providers and the batch processor report through it so the
// backing implementation (Prometheus, in-memory, noop) can be swapped
// without touching analysis code.
type GrammarMetrics interface {
	// RecordAnalysis records one sentence analysis.
	RecordAnalysis(ctx context.Context, params *AnalysisMetricParams)

	// RecordHandler records whether a handler's contribution survived
	// arbitration.
	RecordHandler(ctx context.Context, handler string, accepted bool)

	// RecordConflict records a discarded claim by conflict kind.
	RecordConflict(ctx context.Context, kind string)

	// RecordParserCall records one call to a dependency parse provider.
	RecordParserCall(ctx context.Context, provider string, durationMs float64, success bool)

	// RecordBatchProcessing records a batch processing event.
	RecordBatchProcessing(ctx context.Context, params *BatchMetricParams)

	// RecordCacheAccess records a parse-cache hit or miss.
	RecordCacheAccess(ctx context.Context, hit bool, provider string)

	// GetAnalysisLatencyHistogram returns the analysis latency histogram.
	GetAnalysisLatencyHistogram() LatencyHistogram

	// GetCurrentStats returns a point-in-time statistics snapshot.
	GetCurrentStats() *GrammarStats
}

// LatencyHistogram provides percentile-based latency observation.
type LatencyHistogram interface {
	// Observe records a latency sample in milliseconds.
	Observe(durationMs float64)

	// Percentile returns the value at the given percentile (0–100).
	Percentile(p float64) float64

	// Count returns the total number of observed samples.
	Count() int64

	// Sum returns the sum of all observed values.
	Sum() float64
}

// ---------------------------------------------------------------------------
// Parameter structs
// ---------------------------------------------------------------------------

// AnalysisMetricParams carries the data for one sentence analysis.
type AnalysisMetricParams struct {
	Provider   string  `json:"provider"`
	DurationMs float64 `json:"duration_ms"`
	Success    bool    `json:"success"`
	ErrorCode  string  `json:"error_code,omitempty"`
	Tokens     int     `json:"tokens"`
	Clauses    int     `json:"clauses"`
	Groups     int     `json:"groups"`
}

// BatchMetricParams carries the data for a batch processing event.
type BatchMetricParams struct {
	BatchName         string  `json:"batch_name"`
	TotalItems        int     `json:"total_items"`
	SuccessItems      int     `json:"success_items"`
	FailedItems       int     `json:"failed_items"`
	CancelledItems    int     `json:"cancelled_items"`
	TotalDurationMs   float64 `json:"total_duration_ms"`
	AvgItemDurationMs float64 `json:"avg_item_duration_ms"`
	MaxConcurrency    int     `json:"max_concurrency"`
}

// GrammarStats is a point-in-time snapshot of analysis metrics.
type GrammarStats struct {
	TotalAnalyses        int64            `json:"total_analyses"`
	SuccessfulAnalyses   int64            `json:"successful_analyses"`
	FailedAnalyses       int64            `json:"failed_analyses"`
	AvgAnalysisLatencyMs float64          `json:"avg_analysis_latency_ms"`
	P50LatencyMs         float64          `json:"p50_latency_ms"`
	P95LatencyMs         float64          `json:"p95_latency_ms"`
	P99LatencyMs         float64          `json:"p99_latency_ms"`
	CacheHitRate         float64          `json:"cache_hit_rate"`
	Conflicts            map[string]int64 `json:"conflicts"`
}

// ---------------------------------------------------------------------------
// Prometheus implementation
// ---------------------------------------------------------------------------

const metricsPrefix = "rephrase_grammar_"

var defaultLatencyBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000}

type prometheusGrammarMetrics struct {
	analysisLatency *prometheus.HistogramVec
	analysisTotal   *prometheus.CounterVec
	handlerTotal    *prometheus.CounterVec
	conflictTotal   *prometheus.CounterVec
	parserLatency   *prometheus.HistogramVec
	batchDuration   *prometheus.HistogramVec
	batchItemsTotal *prometheus.CounterVec
	cacheAccess     *prometheus.CounterVec

	// in-memory tracking for GetCurrentStats / GetAnalysisLatencyHistogram
	latencyHist *latencyHistogram
	total       atomic.Int64
	success     atomic.Int64
	failed      atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	conflicts   sync.Map // kind -> *atomic.Int64
}

// NewPrometheusGrammarMetrics creates a Prometheus-backed collector and
// registers every metric with registerer.
func NewPrometheusGrammarMetrics(registerer prometheus.Registerer) (GrammarMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &prometheusGrammarMetrics{latencyHist: newLatencyHistogram()}

	m.analysisLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricsPrefix + "analysis_duration_milliseconds",
		Help:    "Histogram of sentence analysis latency in milliseconds.",
		Buckets: defaultLatencyBuckets,
	}, []string{"provider"})

	m.analysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "analysis_total",
		Help: "Total number of sentence analyses.",
	}, []string{"provider", "status", "code"})

	m.handlerTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "handler_contributions_total",
		Help: "Handler contributions by arbitration outcome.",
	}, []string{"handler", "outcome"})

	m.conflictTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "merge_conflicts_total",
		Help: "Claims discarded during arbitration.",
	}, []string{"kind"})

	m.parserLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricsPrefix + "parser_duration_milliseconds",
		Help:    "Histogram of dependency parser latency in milliseconds.",
		Buckets: defaultLatencyBuckets,
	}, []string{"provider", "status"})

	m.batchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricsPrefix + "batch_processing_duration_milliseconds",
		Help:    "Histogram of batch processing duration in milliseconds.",
		Buckets: defaultLatencyBuckets,
	}, []string{"batch_name"})

	m.batchItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "batch_items_total",
		Help: "Total number of sentences processed in batches.",
	}, []string{"batch_name", "status"})

	m.cacheAccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "parse_cache_access_total",
		Help: "Total number of parse cache accesses.",
	}, []string{"provider", "result"})

	collectors := []prometheus.Collector{
		m.analysisLatency,
		m.analysisTotal,
		m.handlerTotal,
		m.conflictTotal,
		m.parserLatency,
		m.batchDuration,
		m.batchItemsTotal,
		m.cacheAccess,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusGrammarMetrics) RecordAnalysis(_ context.Context, p *AnalysisMetricParams) {
	if p == nil {
		return
	}
	status := "success"
	if !p.Success {
		status = "failure"
	}
	m.analysisLatency.WithLabelValues(p.Provider).Observe(p.DurationMs)
	m.analysisTotal.WithLabelValues(p.Provider, status, p.ErrorCode).Inc()

	m.latencyHist.Observe(p.DurationMs)
	m.total.Add(1)
	if p.Success {
		m.success.Add(1)
	} else {
		m.failed.Add(1)
	}
}

func (m *prometheusGrammarMetrics) RecordHandler(_ context.Context, handler string, accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	m.handlerTotal.WithLabelValues(handler, outcome).Inc()
}

func (m *prometheusGrammarMetrics) RecordConflict(_ context.Context, kind string) {
	m.conflictTotal.WithLabelValues(kind).Inc()
	v, _ := m.conflicts.LoadOrStore(kind, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func (m *prometheusGrammarMetrics) RecordParserCall(_ context.Context, provider string, durationMs float64, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.parserLatency.WithLabelValues(provider, status).Observe(durationMs)
}

func (m *prometheusGrammarMetrics) RecordBatchProcessing(_ context.Context, p *BatchMetricParams) {
	if p == nil {
		return
	}
	m.batchDuration.WithLabelValues(p.BatchName).Observe(p.TotalDurationMs)
	m.batchItemsTotal.WithLabelValues(p.BatchName, "success").Add(float64(p.SuccessItems))
	m.batchItemsTotal.WithLabelValues(p.BatchName, "failed").Add(float64(p.FailedItems))
	m.batchItemsTotal.WithLabelValues(p.BatchName, "cancelled").Add(float64(p.CancelledItems))
}

func (m *prometheusGrammarMetrics) RecordCacheAccess(_ context.Context, hit bool, provider string) {
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheAccess.WithLabelValues(provider, result).Inc()
}

func (m *prometheusGrammarMetrics) GetAnalysisLatencyHistogram() LatencyHistogram {
	return m.latencyHist
}

func (m *prometheusGrammarMetrics) GetCurrentStats() *GrammarStats {
	conflicts := make(map[string]int64)
	m.conflicts.Range(func(key, value any) bool {
		conflicts[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return buildStats(m.total.Load(), m.success.Load(), m.failed.Load(),
		m.cacheHits.Load(), m.cacheMisses.Load(), m.latencyHist, conflicts)
}

// ---------------------------------------------------------------------------
// Noop implementation
// ---------------------------------------------------------------------------

type noopGrammarMetrics struct{}

// NewNoopGrammarMetrics returns a no-op metrics implementation.
func NewNoopGrammarMetrics() GrammarMetrics {
	return &noopGrammarMetrics{}
}

func (n *noopGrammarMetrics) RecordAnalysis(context.Context, *AnalysisMetricParams)       {}
func (n *noopGrammarMetrics) RecordHandler(context.Context, string, bool)                 {}
func (n *noopGrammarMetrics) RecordConflict(context.Context, string)                      {}
func (n *noopGrammarMetrics) RecordParserCall(context.Context, string, float64, bool)     {}
func (n *noopGrammarMetrics) RecordBatchProcessing(context.Context, *BatchMetricParams)   {}
func (n *noopGrammarMetrics) RecordCacheAccess(context.Context, bool, string)             {}

func (n *noopGrammarMetrics) GetAnalysisLatencyHistogram() LatencyHistogram {
	return newLatencyHistogram()
}

func (n *noopGrammarMetrics) GetCurrentStats() *GrammarStats {
	return &GrammarStats{Conflicts: map[string]int64{}}
}

// ---------------------------------------------------------------------------
// In-memory implementation (for testing)
// ---------------------------------------------------------------------------

// InMemoryGrammarMetrics keeps every recorded event for inspection in tests.
type InMemoryGrammarMetrics struct {
	mu sync.Mutex

	analyses    []*AnalysisMetricParams
	batches     []*BatchMetricParams
	handlers    map[string]int64
	rejected    map[string]int64
	conflicts   map[string]int64
	parserCalls int64
	cacheHits   int64
	cacheMisses int64
	latencyHist *latencyHistogram
}

// NewInMemoryGrammarMetrics returns an in-memory metrics implementation.
func NewInMemoryGrammarMetrics() *InMemoryGrammarMetrics {
	return &InMemoryGrammarMetrics{
		handlers:    make(map[string]int64),
		rejected:    make(map[string]int64),
		conflicts:   make(map[string]int64),
		latencyHist: newLatencyHistogram(),
	}
}

func (m *InMemoryGrammarMetrics) RecordAnalysis(_ context.Context, p *AnalysisMetricParams) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.analyses = append(m.analyses, &cp)
	m.latencyHist.Observe(p.DurationMs)
}

func (m *InMemoryGrammarMetrics) RecordHandler(_ context.Context, handler string, accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accepted {
		m.handlers[handler]++
	} else {
		m.rejected[handler]++
	}
}

func (m *InMemoryGrammarMetrics) RecordConflict(_ context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[kind]++
}

func (m *InMemoryGrammarMetrics) RecordParserCall(context.Context, string, float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parserCalls++
}

func (m *InMemoryGrammarMetrics) RecordBatchProcessing(_ context.Context, p *BatchMetricParams) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.batches = append(m.batches, &cp)
}

func (m *InMemoryGrammarMetrics) RecordCacheAccess(_ context.Context, hit bool, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *InMemoryGrammarMetrics) GetAnalysisLatencyHistogram() LatencyHistogram {
	return m.latencyHist
}

func (m *InMemoryGrammarMetrics) GetCurrentStats() *GrammarStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var success, failed int64
	for _, a := range m.analyses {
		if a.Success {
			success++
		} else {
			failed++
		}
	}
	conflicts := make(map[string]int64, len(m.conflicts))
	for k, v := range m.conflicts {
		conflicts[k] = v
	}
	return buildStats(int64(len(m.analyses)), success, failed, m.cacheHits, m.cacheMisses, m.latencyHist, conflicts)
}

// Analyses returns a copy of all recorded analyses.
func (m *InMemoryGrammarMetrics) Analyses() []*AnalysisMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*AnalysisMetricParams, len(m.analyses))
	for i, p := range m.analyses {
		cp := *p
		out[i] = &cp
	}
	return out
}

// Batches returns a copy of all recorded batch events.
func (m *InMemoryGrammarMetrics) Batches() []*BatchMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*BatchMetricParams, len(m.batches))
	for i, p := range m.batches {
		cp := *p
		out[i] = &cp
	}
	return out
}

// HandlerCount returns how often handler was accepted.
func (m *InMemoryGrammarMetrics) HandlerCount(handler string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers[handler]
}

// ConflictCount returns how many conflicts of kind were recorded.
func (m *InMemoryGrammarMetrics) ConflictCount(kind string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflicts[kind]
}

// ParserCalls returns the number of recorded parser calls.
func (m *InMemoryGrammarMetrics) ParserCalls() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parserCalls
}

// CacheHits returns the number of cache hits recorded.
func (m *InMemoryGrammarMetrics) CacheHits() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits
}

// CacheMisses returns the number of cache misses recorded.
func (m *InMemoryGrammarMetrics) CacheMisses() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheMisses
}

func buildStats(total, success, failed, hits, misses int64, h *latencyHistogram, conflicts map[string]int64) *GrammarStats {
	var avg float64
	if total > 0 {
		avg = h.Sum() / float64(total)
	}
	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}
	return &GrammarStats{
		TotalAnalyses:        total,
		SuccessfulAnalyses:   success,
		FailedAnalyses:       failed,
		AvgAnalysisLatencyMs: avg,
		P50LatencyMs:         h.Percentile(50),
		P95LatencyMs:         h.Percentile(95),
		P99LatencyMs:         h.Percentile(99),
		CacheHitRate:         hitRate,
		Conflicts:            conflicts,
	}
}

// ---------------------------------------------------------------------------
// latencyHistogram — in-memory, thread-safe, percentile-capable
// ---------------------------------------------------------------------------

type latencyHistogram struct {
	mu      sync.RWMutex
	samples []float64
	sum     float64
	sorted  bool
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{samples: make([]float64, 0, 1024)}
}

func (h *latencyHistogram) Observe(durationMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, durationMs)
	h.sum += durationMs
	h.sorted = false
}

// Percentile returns the value at percentile p (0–100) using linear
// interpolation between the two nearest ranks.
func (h *latencyHistogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.samples)
	if n == 0 {
		return 0
	}
	if !h.sorted {
		sort.Float64s(h.samples)
		h.sorted = true
	}
	if p <= 0 {
		return h.samples[0]
	}
	if p >= 100 {
		return h.samples[n-1]
	}

	// PERCENTILE.INC
	rank := (p / 100) * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return h.samples[n-1]
	}
	frac := rank - float64(lower)
	return h.samples[lower] + frac*(h.samples[upper]-h.samples[lower])
}

func (h *latencyHistogram) Count() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return int64(len(h.samples))
}

func (h *latencyHistogram) Sum() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sum
}

// compile-time interface checks
var (
	_ GrammarMetrics   = (*prometheusGrammarMetrics)(nil)
	_ GrammarMetrics   = (*noopGrammarMetrics)(nil)
	_ GrammarMetrics   = (*InMemoryGrammarMetrics)(nil)
	_ LatencyHistogram = (*latencyHistogram)(nil)
)

//Personal.AI order the ending
