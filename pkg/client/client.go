// Package client is the Go SDK for the slot-mapping HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
)

const Version = "0.1.0"

// ErrInvalidConfig is returned by NewClient for an unusable base URL.
var ErrInvalidConfig = stderrors.New("client: invalid configuration")

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

// Client talks to a rephrase API server.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	analysis     *AnalysisClient
	analysisOnce sync.Once
	handlers     *HandlersClient
	handlersOnce sync.Once
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("rephrase: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg + " [request_id=" + e.RequestID + "]"
}

// ErrorCode returns the server error code as a typed value.
func (e *APIError) ErrorCode() errors.ErrorCode { return errors.ErrorCode(e.Code) }

func (e *APIError) IsNotFound() bool    { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidConfig
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    "rephrase-go-sdk/" + Version,
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Analysis returns the analysis sub-client.
func (c *Client) Analysis() *AnalysisClient {
	c.analysisOnce.Do(func() {
		c.analysis = &AnalysisClient{client: c}
	})
	return c.analysis
}

// Handlers returns the handler-registry sub-client.
func (c *Client) Handlers() *HandlersClient {
	c.handlersOnce.Do(func() {
		c.handlers = &HandlersClient{client: c}
	})
	return c.handlers
}

// do performs an HTTP request with retry logic and unwraps the response
// envelope into result.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}

	var (
		lastErr error
		wait    time.Duration
	)
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			if wait == 0 {
				wait = c.calculateBackoff(attempt)
			}
			c.logger.Debugf("retry attempt %d after %v", attempt, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait = 0
		}

		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, rd)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		requestID := uuid.New().String()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Errorf("request failed: %v", err)
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= 400 {
			apiErr := parseAPIError(resp.StatusCode, requestID, respBody)
			lastErr = apiErr
			if apiErr.IsRateLimited() {
				s, err := strconv.Atoi(resp.Header.Get("Retry-After"))
				if err != nil {
					return apiErr
				}
				c.logger.Infof("rate limited, retrying after %d seconds", s)
				wait = time.Duration(s) * time.Second
				continue
			}
			if apiErr.IsServerError() {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			var env apitypes.APIResponse[json.RawMessage]
			if err := json.Unmarshal(respBody, &env); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
			if len(env.Data) > 0 {
				if err := json.Unmarshal(env.Data, result); err != nil {
					return fmt.Errorf("failed to unmarshal response data: %w", err)
				}
			}
		}
		return nil
	}
	return lastErr
}

func parseAPIError(status int, requestID string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	var env apitypes.APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Detail = env.Error.Detail
		if env.RequestID != "" {
			apiErr.RequestID = env.RequestID
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if backoff < 4 {
		return backoff
	}
	return backoff + time.Duration(rand.Int63n(int64(backoff/4)))
}

//Personal.AI order the ending
