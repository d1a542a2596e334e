package common

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

var ErrShutdown = errors.New(errors.ErrCodeServiceUnavailable, "batch processor is shutting down")

// ---------------------------------------------------------------------------
// ItemStatus
// ---------------------------------------------------------------------------

// ItemStatus is the outcome of a single batch item.
type ItemStatus int

const (
	ItemStatusSuccess ItemStatus = iota
	ItemStatusFailed
	ItemStatusTimeout
	ItemStatusCancelled
)

func (s ItemStatus) String() string {
	switch s {
	case ItemStatusSuccess:
		return "SUCCESS"
	case ItemStatusFailed:
		return "FAILED"
	case ItemStatusTimeout:
		return "TIMEOUT"
	case ItemStatusCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON and YAML output.
func (s ItemStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ---------------------------------------------------------------------------
// Generic types
// ---------------------------------------------------------------------------

// ProcessFunc processes one item.
type ProcessFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ItemResult is the outcome of one item.  Results keep input order.
type ItemResult[R any] struct {
	Index      int        `json:"index"`
	Result     R          `json:"result"`
	Error      error      `json:"-"`
	DurationMs float64    `json:"duration_ms"`
	Status     ItemStatus `json:"status"`
	Attempts   int        `json:"attempts"`
}

// BatchResult aggregates a batch run.
type BatchResult[R any] struct {
	Results           []*ItemResult[R] `json:"results"`
	TotalCount        int              `json:"total_count"`
	SuccessCount      int              `json:"success_count"`
	FailureCount      int              `json:"failure_count"`
	CancelledCount    int              `json:"cancelled_count"`
	TotalDurationMs   float64          `json:"total_duration_ms"`
	AvgItemDurationMs float64          `json:"avg_item_duration_ms"`
}

// ---------------------------------------------------------------------------
// Retry
// ---------------------------------------------------------------------------

// RetryPolicy governs per-item retries.  Only errors accepted by Retryable
// are retried; a nil Retryable retries parser outages and timeouts.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

func (p *RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return errors.IsCode(err, errors.ErrCodeParserUnavailable) || errors.IsCode(err, errors.ErrCodeTimeout)
}

func (p *RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff << uint(attempt)
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

type batchConfig struct {
	name           string
	maxConcurrency int
	itemTimeout    time.Duration
	batchTimeout   time.Duration
	retry          *RetryPolicy
	metrics        GrammarMetrics
	logger         logging.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*batchConfig)

// WithBatchName labels metrics and logs.
func WithBatchName(name string) BatchOption {
	return func(c *batchConfig) {
		if name != "" {
			c.name = name
		}
	}
}

func WithMaxConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

func WithItemTimeout(d time.Duration) BatchOption {
	return func(c *batchConfig) {
		if d > 0 {
			c.itemTimeout = d
		}
	}
}

func WithBatchTimeout(d time.Duration) BatchOption {
	return func(c *batchConfig) {
		if d > 0 {
			c.batchTimeout = d
		}
	}
}

func WithRetryPolicy(p *RetryPolicy) BatchOption {
	return func(c *batchConfig) { c.retry = p }
}

func WithBatchMetrics(m GrammarMetrics) BatchOption {
	return func(c *batchConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithBatchLogger(l logging.Logger) BatchOption {
	return func(c *batchConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ---------------------------------------------------------------------------
// BatchProcessor
// ---------------------------------------------------------------------------

// BatchProcessor runs a function over many items with bounded concurrency.
// Items fail individually; a failed item never cancels its siblings.
type BatchProcessor[T, R any] struct {
	cfg    batchConfig
	closed atomic.Bool
	active sync.WaitGroup
}

// NewBatchProcessor creates a processor.  Defaults: concurrency 8, item
// timeout 10s, batch timeout 5m, no retries.
func NewBatchProcessor[T, R any](opts ...BatchOption) *BatchProcessor[T, R] {
	cfg := batchConfig{
		name:           "batch",
		maxConcurrency: 8,
		itemTimeout:    10 * time.Second,
		batchTimeout:   5 * time.Minute,
		metrics:        NewNoopGrammarMetrics(),
		logger:         logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &BatchProcessor[T, R]{cfg: cfg}
}

// MaxConcurrency reports the concurrency limit.
func (bp *BatchProcessor[T, R]) MaxConcurrency() int { return bp.cfg.maxConcurrency }

// Process runs fn over items.  The returned error is non-nil only when the
// batch cannot start.
func (bp *BatchProcessor[T, R]) Process(ctx context.Context, items []T, fn ProcessFunc[T, R]) (*BatchResult[R], error) {
	if fn == nil {
		return nil, errors.InvalidParam("process function must not be nil")
	}
	if bp.closed.Load() {
		return nil, ErrShutdown
	}
	bp.active.Add(1)
	defer bp.active.Done()

	start := time.Now()
	results := make([]*ItemResult[R], len(items))

	batchCtx, cancel := context.WithTimeout(ctx, bp.cfg.batchTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(bp.cfg.maxConcurrency)
	for i := range items {
		if err := batchCtx.Err(); err != nil {
			results[i] = &ItemResult[R]{Index: i, Error: err, Status: classifyError(batchCtx, err)}
			continue
		}
		i := i
		g.Go(func() error {
			results[i] = bp.processOne(batchCtx, i, items[i], fn)
			return nil
		})
	}
	_ = g.Wait()

	br := buildBatchResult(results, time.Since(start))
	bp.cfg.metrics.RecordBatchProcessing(ctx, &BatchMetricParams{
		BatchName:         bp.cfg.name,
		TotalItems:        br.TotalCount,
		SuccessItems:      br.SuccessCount,
		FailedItems:       br.FailureCount,
		CancelledItems:    br.CancelledCount,
		TotalDurationMs:   br.TotalDurationMs,
		AvgItemDurationMs: br.AvgItemDurationMs,
		MaxConcurrency:    bp.cfg.maxConcurrency,
	})
	bp.cfg.logger.Debug("batch finished",
		logging.String("batch", bp.cfg.name),
		logging.Int("total", br.TotalCount),
		logging.Int("failed", br.FailureCount),
		logging.Float64("duration_ms", br.TotalDurationMs))
	return br, nil
}

func (bp *BatchProcessor[T, R]) processOne(ctx context.Context, idx int, item T, fn ProcessFunc[T, R]) *ItemResult[R] {
	start := time.Now()
	attempts := 1
	if bp.cfg.retry != nil && bp.cfg.retry.MaxRetries > 0 {
		attempts += bp.cfg.retry.MaxRetries
	}

	ir := &ItemResult[R]{Index: idx}
	var lastErr error
retry:
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break retry
			case <-time.After(bp.cfg.retry.backoff(attempt - 1)):
			}
		}
		ir.Attempts = attempt + 1

		itemCtx, cancel := context.WithTimeout(ctx, bp.cfg.itemTimeout)
		res, err := fn(itemCtx, item)
		cancel()
		if err == nil {
			ir.Result = res
			ir.Status = ItemStatusSuccess
			ir.DurationMs = msSince(start)
			return ir
		}
		lastErr = err
		if bp.cfg.retry == nil || !bp.cfg.retry.retryable(err) {
			break retry
		}
		bp.cfg.logger.Debug("retrying batch item", logging.Int("index", idx), logging.Int("attempt", attempt+1), logging.Err(err))
	}

	ir.Error = lastErr
	ir.Status = classifyError(ctx, lastErr)
	ir.DurationMs = msSince(start)
	return ir
}

// Shutdown rejects new batches and waits for running ones.
func (bp *BatchProcessor[T, R]) Shutdown(ctx context.Context) error {
	bp.closed.Store(true)
	done := make(chan struct{})
	go func() {
		bp.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func buildBatchResult[R any](results []*ItemResult[R], total time.Duration) *BatchResult[R] {
	br := &BatchResult[R]{
		Results:         results,
		TotalCount:      len(results),
		TotalDurationMs: float64(total.Microseconds()) / 1000.0,
	}
	var sum float64
	for _, r := range results {
		switch r.Status {
		case ItemStatusSuccess:
			br.SuccessCount++
		case ItemStatusCancelled:
			br.CancelledCount++
			br.FailureCount++
		default:
			br.FailureCount++
		}
		sum += r.DurationMs
	}
	if br.TotalCount > 0 {
		br.AvgItemDurationMs = sum / float64(br.TotalCount)
	}
	return br
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

func classifyError(batchCtx context.Context, err error) ItemStatus {
	switch {
	case err == nil:
		return ItemStatusSuccess
	case stderrors.Is(err, context.DeadlineExceeded):
		return ItemStatusTimeout
	case stderrors.Is(err, context.Canceled):
		return ItemStatusCancelled
	}
	switch batchCtx.Err() {
	case context.DeadlineExceeded:
		return ItemStatusTimeout
	case context.Canceled:
		return ItemStatusCancelled
	}
	return ItemStatusFailed
}

//Personal.AI order the ending
