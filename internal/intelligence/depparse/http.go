package depparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// HTTPParser calls a spaCy-style parse service.  The service accepts
// {"text": "..."} on POST and answers {"tokens": [...]}.
type HTTPParser struct {
	parseURL     string
	healthURL    string
	httpClient   *http.Client
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	zeroBased    bool
	logger       logging.Logger
}

// HTTPOption configures an HTTPParser.
type HTTPOption func(*HTTPParser)

// WithHTTPClient replaces the default client (30s timeout).  The client is
// never modified; WithTimeout applies to a copy.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPParser) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPParser) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRetry sets the retry budget and backoff bounds.
func WithRetry(max int, waitMin, waitMax time.Duration) HTTPOption {
	return func(p *HTTPParser) {
		if max >= 0 {
			p.retryMax = max
		}
		if waitMin > 0 {
			p.retryWaitMin = waitMin
			if waitMax >= waitMin {
				p.retryWaitMax = waitMax
			}
		}
	}
}

// WithZeroBasedHeads declares that the service numbers tokens from 0 and
// marks the root by pointing its head at itself.
func WithZeroBasedHeads(zero bool) HTTPOption {
	return func(p *HTTPParser) { p.zeroBased = zero }
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(l logging.Logger) HTTPOption {
	return func(p *HTTPParser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewHTTPParser builds a parser for the service rooted at endpoint.  The
// parse route is <endpoint>/parse unless endpoint already names a path.
func NewHTTPParser(endpoint string, opts ...HTTPOption) (*HTTPParser, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New(errors.ErrCodeValidation, "invalid parse service endpoint").WithDetail(endpoint)
	}
	base := u.Scheme + "://" + u.Host
	parsePath := u.Path
	if parsePath == "" {
		parsePath = "/parse"
	}

	p := &HTTPParser{
		parseURL:     base + parsePath,
		healthURL:    base + "/health",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		retryMax:     3,
		retryWaitMin: 200 * time.Millisecond,
		retryWaitMax: 2 * time.Second,
		logger:       logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout > 0 {
		c := *p.httpClient
		c.Timeout = p.timeout
		p.httpClient = &c
	}
	p.logger = p.logger.Named("depparse.http")
	return p, nil
}

// Name implements slotmap.DependencyParser.
func (p *HTTPParser) Name() string { return "http" }

type parseRequest struct {
	Text string `json:"text"`
}

type wireToken struct {
	ID    *int   `json:"id,omitempty"`
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Tag   string `json:"tag"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

type parseResponse struct {
	Tokens []wireToken `json:"tokens"`
}

// Parse implements slotmap.DependencyParser.
func (p *HTTPParser) Parse(ctx context.Context, sentence string) ([]grammar.Token, error) {
	body, err := json.Marshal(parseRequest{Text: Normalize(sentence)})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode parse request")
	}

	var resp parseResponse
	if err := p.do(ctx, body, &resp); err != nil {
		return nil, err
	}
	return convertTokens(resp.Tokens, p.zeroBased), nil
}

// Health probes <endpoint>/health.
func (p *HTTPParser) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.healthURL, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeParserUnavailable, "failed to build health request")
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeParserUnavailable, "parse service unreachable")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return errors.New(errors.ErrCodeParserUnavailable, "parse service unhealthy").
			WithDetail("status " + strconv.Itoa(resp.StatusCode))
	}
	return nil
}

func (p *HTTPParser) do(ctx context.Context, body []byte, result *parseResponse) error {
	var lastErr error
	for attempt := 0; attempt <= p.retryMax; attempt++ {
		if attempt > 0 {
			backoff := p.backoff(attempt)
			p.logger.Debug("retrying parse request", logging.Int("attempt", attempt), logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "parse request cancelled")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.parseURL, bytes.NewReader(body))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeParserUnavailable, "failed to build parse request")
		}
		requestID := uuid.New().String()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := p.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "parse request cancelled")
			}
			p.logger.Warn("parse request failed", logging.String(logging.KeyRequestID, requestID), logging.Err(err))
			lastErr = errors.Wrap(err, errors.ErrCodeParserUnavailable, "parse service unreachable")
			continue
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeParserUnavailable, "failed to read parse response")
			continue
		}
		p.logger.Debug("parse request",
			logging.String(logging.KeyRequestID, requestID),
			logging.Int("status", resp.StatusCode),
			logging.Duration("elapsed", time.Since(start)))

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = errors.New(errors.ErrCodeParserUnavailable, "parse service error").
				WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(raw)))
			continue
		case resp.StatusCode >= 400:
			return errors.New(errors.ErrCodeParseInput, "parse service rejected sentence").
				WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(raw)))
		}

		if err := json.Unmarshal(raw, result); err != nil {
			return errors.Wrap(err, errors.ErrCodeParseInput, "malformed parse response")
		}
		return nil
	}
	return lastErr
}

func (p *HTTPParser) backoff(attempt int) time.Duration {
	d := p.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if d > p.retryWaitMax {
		d = p.retryWaitMax
	}
	if q := int64(d / 4); q > 0 {
		d += time.Duration(rand.Int63n(q))
	}
	return d
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// convertTokens maps service tokens onto 1-based grammar tokens.
func convertTokens(in []wireToken, zeroBased bool) []grammar.Token {
	out := make([]grammar.Token, len(in))
	for i, w := range in {
		t := grammar.Token{
			Index: i + 1,
			Text:  w.Text,
			Lemma: w.Lemma,
			POS:   w.POS,
			Tag:   w.Tag,
			Dep:   w.Dep,
			Head:  w.Head,
		}
		if zeroBased {
			if w.Head == i {
				t.Head = 0
			} else {
				t.Head = w.Head + 1
			}
		} else if w.ID != nil {
			t.Index = *w.ID
		}
		out[i] = t
	}
	return out
}
