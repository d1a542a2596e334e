package depparse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

const heRunsZeroBased = `{"tokens":[
 {"text":"He","lemma":"he","pos":"PRON","tag":"PRP","dep":"nsubj","head":1},
 {"text":"runs","lemma":"run","pos":"VERB","tag":"VBZ","dep":"ROOT","head":1},
 {"text":".","lemma":".","pos":"PUNCT","tag":".","dep":"punct","head":1}]}`

func fastRetry() HTTPOption { return WithRetry(2, time.Millisecond, 2*time.Millisecond) }

func TestHTTPParser_ZeroBasedHeads(t *testing.T) {
	var got parseRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(heRunsZeroBased))
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL, WithZeroBasedHeads(true))
	require.NoError(t, err)

	tokens, err := p.Parse(context.Background(), "  He   runs. ")
	require.NoError(t, err)
	assert.Equal(t, "He runs.", got.Text)
	assert.Equal(t, []grammar.Token{
		{Index: 1, Text: "He", Lemma: "he", POS: "PRON", Tag: "PRP", Dep: "nsubj", Head: 2},
		{Index: 2, Text: "runs", Lemma: "run", POS: "VERB", Tag: "VBZ", Dep: "ROOT", Head: 0},
		{Index: 3, Text: ".", Lemma: ".", POS: "PUNCT", Tag: ".", Dep: "punct", Head: 2},
	}, tokens)
	assert.Equal(t, "http", p.Name())
}

func TestHTTPParser_OneBasedWithIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tokens":[{"id":1,"text":"Go","dep":"ROOT","head":0},{"id":2,"text":"!","dep":"punct","head":1}]}`))
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL + "/v2/dep")
	require.NoError(t, err)
	tokens, err := p.Parse(context.Background(), "Go!")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, 0, tokens[0].Head)
	assert.Equal(t, 1, tokens[1].Head)
}

func TestHTTPParser_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(heRunsZeroBased))
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL, WithZeroBasedHeads(true), fastRetry())
	require.NoError(t, err)
	tokens, err := p.Parse(context.Background(), "He runs.")
	require.NoError(t, err)
	assert.Len(t, tokens, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPParser_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "model loading", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL, fastRetry())
	require.NoError(t, err)
	_, err = p.Parse(context.Background(), "He runs.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeParserUnavailable))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPParser_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL, fastRetry())
	require.NoError(t, err)
	_, err = p.Parse(context.Background(), "He runs.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseInput))
	assert.False(t, errors.IsCode(err, errors.ErrCodeParserUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPParser_TimeoutLeavesCallerClientAlone(t *testing.T) {
	own := &http.Client{Timeout: time.Minute}

	p, err := NewHTTPParser("http://parser.local", WithHTTPClient(own), WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, own.Timeout)
	assert.Equal(t, 5*time.Second, p.httpClient.Timeout)
	assert.NotSame(t, own, p.httpClient)

	p, err = NewHTTPParser("http://parser.local", WithTimeout(5*time.Second), WithHTTPClient(own))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, own.Timeout)
	assert.Equal(t, 5*time.Second, p.httpClient.Timeout)

	p, err = NewHTTPParser("http://parser.local", WithHTTPClient(own))
	require.NoError(t, err)
	assert.Same(t, own, p.httpClient)
}

func TestHTTPParser_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tokens": [`))
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL)
	require.NoError(t, err)
	_, err = p.Parse(context.Background(), "He runs.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseInput))
}

func TestHTTPParser_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL, WithRetry(5, time.Second, time.Second))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Parse(ctx, "He runs.")
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestHTTPParser_Health(t *testing.T) {
	var unhealthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if unhealthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	p, err := NewHTTPParser(srv.URL)
	require.NoError(t, err)
	assert.NoError(t, p.Health(context.Background()))

	unhealthy.Store(true)
	assert.True(t, errors.IsCode(p.Health(context.Background()), errors.ErrCodeParserUnavailable))
}

func TestNewHTTPParser_InvalidEndpoint(t *testing.T) {
	for _, ep := range []string{"", "localhost:8080", "ftp://x", "http://"} {
		_, err := NewHTTPParser(ep)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation), ep)
	}
}

func TestNormalizeAndCacheKey(t *testing.T) {
	// "é" as e + combining acute
	decomposed := "Cafe\u0301  is\topen."
	assert.Equal(t, "Caf\u00e9 is open.", Normalize(decomposed))
	assert.Equal(t, CacheKey("http", "Caf\u00e9 is open."), CacheKey("http", decomposed))
	assert.NotEqual(t, CacheKey("http", "a"), CacheKey("conllu", "a"))
}
