// Package common holds the wire types shared by the HTTP API, the Go client
// and the Kafka sentence worker.
package common

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Timestamp is a time.Time alias with RFC 3339 JSON serialization.
type Timestamp time.Time

// ErrorDetail provides structured error information for API responses and
// failed result messages.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// APIResponse is the generic wrapper for all API responses.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp Timestamp    `json:"timestamp"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Analysis requests
// ─────────────────────────────────────────────────────────────────────────────

// AnalyzeRequest asks for the slot map of one sentence.
type AnalyzeRequest struct {
	Sentence string `json:"sentence"`
}

// BatchAnalyzeRequest asks for the slot maps of several sentences.
type BatchAnalyzeRequest struct {
	Sentences []string `json:"sentences"`
}

// BatchItem is the outcome for one sentence of a batch, in input order.
type BatchItem struct {
	Index      int                    `json:"index"`
	Sentence   string                 `json:"sentence"`
	Status     string                 `json:"status"`
	Result     *grammar.OrderedResult `json:"result,omitempty"`
	Error      *ErrorDetail           `json:"error,omitempty"`
	DurationMs float64                `json:"duration_ms"`
}

// BatchAnalyzeResponse summarizes a batch.
type BatchAnalyzeResponse struct {
	BatchID    string      `json:"batch_id"`
	Items      []BatchItem `json:"items"`
	Total      int         `json:"total"`
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	DurationMs float64     `json:"duration_ms"`
}

// HandlerInfo describes one grammar handler.
type HandlerInfo struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Active   bool   `json:"active"`
}

// HandlerList is the handler registry view.
type HandlerList struct {
	Handlers []HandlerInfo `json:"handlers"`
	Active   []string      `json:"active"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Queue envelopes
// ─────────────────────────────────────────────────────────────────────────────

// SentenceMessage is one unit of queued work.
type SentenceMessage struct {
	ID          string    `json:"id"`
	Sentence    string    `json:"sentence"`
	SubmittedAt Timestamp `json:"submitted_at"`
}

// ResultMessage is published for every consumed SentenceMessage.
type ResultMessage struct {
	ID          string                 `json:"id"`
	Sentence    string                 `json:"sentence"`
	Result      *grammar.OrderedResult `json:"result,omitempty"`
	Error       *ErrorDetail           `json:"error,omitempty"`
	Attempts    int                    `json:"attempts"`
	DurationMs  float64                `json:"duration_ms"`
	ProcessedAt Timestamp              `json:"processed_at"`
}

// NewSentenceMessage stamps a sentence with a fresh id.
func NewSentenceMessage(sentence string) SentenceMessage {
	return SentenceMessage{ID: uuid.NewString(), Sentence: sentence, SubmittedAt: NewTimestamp()}
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

// HealthStatus indicates the health of a component or service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDisabled HealthStatus = "disabled"
)

// ComponentHealth provides health information for a specific component.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMs float64      `json:"latency_ms"`
	Message   string       `json:"message,omitempty"`
}

// ReadinessReport aggregates component checks.
type ReadinessReport struct {
	Status     HealthStatus      `json:"status"`
	Components []ComponentHealth `json:"components"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// MarshalJSON implements json.Marshaler, using RFC 3339 with nanoseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// Time returns the underlying time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// NewTimestamp returns the current UTC time as a Timestamp.
func NewTimestamp() Timestamp {
	return Timestamp(time.Now().UTC())
}

// GenerateID generates a unique ID with an optional prefix.
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// NewSuccessResponse creates a successful APIResponse.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success:   true,
		Data:      data,
		Timestamp: NewTimestamp(),
	}
}

// NewErrorResponse creates an error APIResponse.
func NewErrorResponse(code, message, detail string) APIResponse[any] {
	return APIResponse[any]{
		Success:   false,
		Error:     &ErrorDetail{Code: code, Message: message, Detail: detail},
		Timestamp: NewTimestamp(),
	}
}

// ContextKey types request-scoped context values.
type ContextKey string

// ContextKeyRequestID is the context key for the request ID.
const ContextKeyRequestID ContextKey = "request_id"

//Personal.AI order the ending
