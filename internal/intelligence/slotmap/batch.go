package slotmap

import (
	"context"
	stderrors "errors"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// HandlerList is the registry view of c: every handler in priority order
// with its state, plus the active identifiers.
func (c Config) HandlerList() apitypes.HandlerList {
	kinds := AllHandlers()
	list := apitypes.HandlerList{
		Handlers: make([]apitypes.HandlerInfo, 0, len(kinds)),
		Active:   c.ListActiveHandlers(),
	}
	for _, k := range kinds {
		list.Handlers = append(list.Handlers, apitypes.HandlerInfo{
			ID:       string(k),
			Priority: k.Priority(),
			Active:   c.IsActive(k),
		})
	}
	if list.Active == nil {
		list.Active = []string{}
	}
	return list
}

// BatchProcessor runs Process over many sentences.
type BatchProcessor = common.BatchProcessor[string, *grammar.OrderedResult]

// ProcessBatch analyses sentences through bp and reports every sentence in
// input order.  Sentences fail individually; the error is non-nil only when
// the batch could not start.
func (e *Engine) ProcessBatch(ctx context.Context, bp *BatchProcessor, sentences []string) (*apitypes.BatchAnalyzeResponse, error) {
	res, err := bp.Process(ctx, sentences, e.Process)
	if err != nil {
		return nil, err
	}

	resp := &apitypes.BatchAnalyzeResponse{
		BatchID:    apitypes.GenerateID("batch"),
		Items:      make([]apitypes.BatchItem, len(res.Results)),
		Total:      res.TotalCount,
		Succeeded:  res.SuccessCount,
		Failed:     res.FailureCount,
		DurationMs: res.TotalDurationMs,
	}
	for i, ir := range res.Results {
		item := apitypes.BatchItem{
			Index:      ir.Index,
			Sentence:   sentences[ir.Index],
			Status:     ir.Status.String(),
			Result:     ir.Result,
			DurationMs: ir.DurationMs,
		}
		if ir.Error != nil {
			item.Error = ErrorDetail(ir.Error, ir.Status)
		}
		resp.Items[i] = item
	}
	return resp, nil
}

// ErrorDetail renders err for a batch item or a result message.  Errors
// without a code are classified by the item status.
func ErrorDetail(err error, status common.ItemStatus) *apitypes.ErrorDetail {
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		return &apitypes.ErrorDetail{Code: string(ae.Code), Message: ae.Message, Detail: ae.Detail}
	}
	code := errors.ErrCodeInternal
	switch status {
	case common.ItemStatusTimeout:
		code = errors.ErrCodeTimeout
	case common.ItemStatusCancelled:
		code = errors.ErrCodeServiceUnavailable
	}
	return &apitypes.ErrorDetail{Code: string(code), Message: errors.DefaultMessageForCode(code)}
}

//Personal.AI order the ending
