package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	logger := &testLogger{}

	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(custom),
		WithTimeout(5*time.Second),
		WithLogger(logger),
		WithRetryMax(0),
		WithUserAgent("cli/1.0"),
	)
	require.NoError(t, err)
	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, 0, c.retryMax)
	assert.Equal(t, "cli/1.0", c.userAgent)
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(nil),
		WithLogger(nil),
		WithRetryMax(-1),
		WithUserAgent(""),
	)
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
	assert.NotNil(t, c.logger)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "rephrase-go-sdk/")
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name      string
		min, max  time.Duration
		expectMin time.Duration
		expectMax time.Duration
	}{
		{"valid range", time.Second, 5 * time.Second, time.Second, 5 * time.Second},
		{"equal values", 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		{"zero min keeps defaults", 0, 5 * time.Second, 500 * time.Millisecond, 5 * time.Second},
		{"max below min keeps default max", 6 * time.Second, 2 * time.Second, 6 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient("http://localhost", WithRetryWait(tt.min, tt.max))
			require.NoError(t, err)
			assert.Equal(t, tt.expectMin, c.retryWaitMin)
			assert.Equal(t, tt.expectMax, c.retryWaitMax)
		})
	}
}

//Personal.AI order the ending
