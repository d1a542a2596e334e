// Package kafka carries sentence work and analysis results over Kafka using
// segmentio/kafka-go: a producer, a consumer group reader with retry and a
// dead-letter topic, and topic administration.
package kafka

import (
	"context"
	"time"
)

// Header keys stamped on dead-lettered messages.
const (
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorCode     = "x-error-code"
	HeaderErrorMessage  = "x-error-message"
	HeaderAttempts      = "x-attempts"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerMessage is a record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one consumed message.  A nil return commits it.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher publishes single messages.  *Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

//Personal.AI order the ending
