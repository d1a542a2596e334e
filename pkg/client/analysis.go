package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// AnalysisClient maps sentences to slots.
type AnalysisClient struct {
	client *Client
}

// Analyze returns the slot map of one sentence.
func (a *AnalysisClient) Analyze(ctx context.Context, sentence string) (*grammar.OrderedResult, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, errors.New(errors.ErrCodeEmptySentence, "sentence is empty")
	}
	var res grammar.OrderedResult
	if err := a.client.do(ctx, http.MethodPost, "/api/v1/analyze", apitypes.AnalyzeRequest{Sentence: sentence}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AnalyzeBatch analyses several sentences in one request.  Per-sentence
// failures are reported in the items, not as an error.
func (a *AnalysisClient) AnalyzeBatch(ctx context.Context, sentences []string) (*apitypes.BatchAnalyzeResponse, error) {
	if len(sentences) == 0 {
		return nil, errors.InvalidParam("sentences must not be empty")
	}
	var res apitypes.BatchAnalyzeResponse
	if err := a.client.do(ctx, http.MethodPost, "/api/v1/analyze/batch", apitypes.BatchAnalyzeRequest{Sentences: sentences}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//Personal.AI order the ending
