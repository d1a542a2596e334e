package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// AnalyzeHandler serves single and batch sentence analysis.
type AnalyzeHandler struct {
	engines      *EngineHolder
	batch        *slotmap.BatchProcessor
	maxBatchSize int
	maxBodySize  int64
	logger       logging.Logger
}

// AnalyzeOptions tunes AnalyzeHandler.
type AnalyzeOptions struct {
	MaxBatchSize int
	MaxBodySize  int64
	Concurrency  int
	ItemTimeout  time.Duration
	Metrics      common.GrammarMetrics
}

// NewAnalyzeHandler creates an AnalyzeHandler.
func NewAnalyzeHandler(engines *EngineHolder, opts AnalyzeOptions, logger logging.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 256
	}
	return &AnalyzeHandler{
		engines: engines,
		batch: common.NewBatchProcessor[string, *grammar.OrderedResult](
			common.WithBatchName("http"),
			common.WithMaxConcurrency(opts.Concurrency),
			common.WithItemTimeout(opts.ItemTimeout),
			common.WithBatchMetrics(opts.Metrics),
			common.WithBatchLogger(logger),
		),
		maxBatchSize: opts.MaxBatchSize,
		maxBodySize:  opts.MaxBodySize,
		logger:       logger.Named("analyze"),
	}
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req apitypes.AnalyzeRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Sentence) == "" {
		writeAppError(w, r, h.logger, errors.New(errors.ErrCodeEmptySentence, "sentence is required"))
		return
	}

	res, err := h.engines.Load().Process(r.Context(), req.Sentence)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeSuccess(w, r, http.StatusOK, res)
}

// AnalyzeBatch handles POST /api/v1/analyze/batch.  Sentences fail
// individually; the response is 200 whenever the batch ran.
func (h *AnalyzeHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req apitypes.BatchAnalyzeRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	switch n := len(req.Sentences); {
	case n == 0:
		writeAppError(w, r, h.logger, errors.New(errors.ErrCodeValidation, "sentences must not be empty"))
		return
	case n > h.maxBatchSize:
		writeAppError(w, r, h.logger, errors.New(errors.ErrCodeValidation, "too many sentences").
			WithDetail(fmt.Sprintf("max=%d got=%d", h.maxBatchSize, n)))
		return
	}

	resp, err := h.engines.Load().ProcessBatch(r.Context(), h.batch, req.Sentences)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	h.logger.Debug("batch analysed",
		logging.String("batch_id", resp.BatchID),
		logging.Int("total", resp.Total),
		logging.Int("failed", resp.Failed))
	writeSuccess(w, r, http.StatusOK, resp)
}

// Shutdown rejects new batches and waits for running ones.
func (h *AnalyzeHandler) Shutdown(ctx context.Context) error {
	return h.batch.Shutdown(ctx)
}

//Personal.AI order the ending
