package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL+"/", opts...)
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apitypes.NewSuccessResponse(data))
}

func writeErrorEnvelope(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apitypes.NewErrorResponse(code, msg, "")
	resp.RequestID = "srv-req"
	_ = json.NewEncoder(w).Encode(resp)
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.baseURL)
	assert.Equal(t, 3, c.retryMax)

	for _, bad := range []string{"", "ftp://invalid", "invalid-url", "::"} {
		_, err := NewClient(bad)
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}

func TestClient_SubClients_ConcurrentAccess(t *testing.T) {
	c, err := NewClient("http://localhost")
	require.NoError(t, err)

	var wg sync.WaitGroup
	seen := make([]*AnalysisClient, 10)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = c.Analysis()
			_ = c.Handlers()
		}(i)
	}
	wg.Wait()
	for _, a := range seen {
		assert.Same(t, seen[0], a)
	}
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

func TestAnalyze_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/analyze", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Contains(t, r.Header.Get("User-Agent"), "rephrase-go-sdk/")

		var req apitypes.AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "It rains.", req.Sentence)

		writeEnvelope(w, http.StatusOK, grammar.OrderedResult{
			Sentence:  req.Sentence,
			MainSlots: map[grammar.Slot]string{grammar.SlotS: "It", grammar.SlotV: "rains"},
		})
	})

	res, err := c.Analysis().Analyze(context.Background(), "It rains.")
	require.NoError(t, err)
	assert.Equal(t, "rains", res.MainSlots[grammar.SlotV])
}

func TestAnalyze_EmptySentenceNeverSent(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { atomic.AddInt32(&calls, 1) })

	_, err := c.Analysis().Analyze(context.Background(), "  ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptySentence))
	_, err = c.Analysis().AnalyzeBatch(context.Background(), nil)
	assert.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestAnalyzeBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyze/batch", r.URL.Path)
		writeEnvelope(w, http.StatusOK, apitypes.BatchAnalyzeResponse{
			BatchID: "batch-1", Total: 2, Succeeded: 1, Failed: 1,
			Items: []apitypes.BatchItem{
				{Index: 0, Status: "SUCCESS"},
				{Index: 1, Status: "FAILED", Error: &apitypes.ErrorDetail{Code: "GRAM_007"}},
			},
		})
	})

	res, err := c.Analysis().AnalyzeBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "batch-1", res.BatchID)
	assert.Equal(t, "GRAM_007", res.Items[1].Error.Code)
}

func TestHandlers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		list := apitypes.HandlerList{Active: []string{"passive"}}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/handlers":
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/handlers/passive":
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/handlers/passive":
			list.Active = []string{}
		default:
			writeErrorEnvelope(w, http.StatusNotFound, "GRAM_005", "unknown grammatical handler")
			return
		}
		writeEnvelope(w, http.StatusOK, list)
	})
	ctx := context.Background()

	list, err := c.Handlers().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"passive"}, list.Active)

	_, err = c.Handlers().Enable(ctx, "passive")
	require.NoError(t, err)

	list, err = c.Handlers().Disable(ctx, "passive")
	require.NoError(t, err)
	assert.Empty(t, list.Active)

	_, err = c.Handlers().Enable(ctx, "bogus")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, errors.ErrCodeUnknownHandler, apiErr.ErrorCode())
	assert.Equal(t, "srv-req", apiErr.RequestID)

	_, err = c.Handlers().Disable(ctx, "")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Retry behaviour
// ---------------------------------------------------------------------------

func TestDo_4xxNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeErrorEnvelope(w, http.StatusUnprocessableEntity, "GRAM_001", "malformed dependency parse")
	})

	_, err := c.Analysis().Analyze(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "GRAM_001", apiErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_5xxRetried(t *testing.T) {
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeErrorEnvelope(w, http.StatusBadGateway, "GRAM_003", "dependency parser unavailable")
			return
		}
		writeEnvelope(w, http.StatusOK, apitypes.HandlerList{})
	}, WithLogger(logger))

	_, err := c.Handlers().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.NotEmpty(t, logger.lines)
}

func TestDo_5xxRetryExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "overloaded")
	}, WithRetryMax(2))

	_, err := c.Handlers().List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "overloaded", apiErr.Message)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDo_429HonoursRetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			writeErrorEnvelope(w, http.StatusTooManyRequests, "COMMON_007", "rate limit exceeded")
			return
		}
		writeEnvelope(w, http.StatusOK, apitypes.HandlerList{})
	})

	_, err := c.Handlers().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_429WithoutRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeErrorEnvelope(w, http.StatusTooManyRequests, "COMMON_007", "rate limit exceeded")
	})
	_, err := c.Handlers().List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
}

func TestDo_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, apitypes.HandlerList{})
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Handlers().List(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{StatusCode: 404, Code: "GRAM_007", Message: "sentence not found in treebank", Detail: "x", RequestID: "r1"}
	assert.Equal(t, "rephrase: GRAM_007 (HTTP 404): sentence not found in treebank (x) [request_id=r1]", e.Error())
}

//Personal.AI order the ending
