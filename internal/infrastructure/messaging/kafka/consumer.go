package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// RetryConfig defines retry behavior.  Errors rejected by Retryable go to
// the dead-letter topic without further attempts; a nil Retryable retries
// everything except client errors such as unparseable input.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
	Retryable       func(error) bool
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string // "earliest" | "latest"
	SessionTimeout  time.Duration
	MaxWait         time.Duration
	FetchMaxBytes   int
	RetryConfig     RetryConfig
}

// Outcome reports how one message ended.
type Outcome struct {
	Attempts     int
	Err          error
	DeadLettered bool
	Duration     time.Duration
}

// ConsumerMetrics holds consumer counters.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesRetried      atomic.Int64
	MessagesDeadLettered atomic.Int64
	Lag                  atomic.Int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetterPublisher routes exhausted messages through p instead of a
// producer built from the consumer's brokers.
func WithDeadLetterPublisher(p Publisher) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

// WithOutcomeHook observes the final outcome of every handled message.
func WithOutcomeHook(fn func(*Message, Outcome)) ConsumerOption {
	return func(c *Consumer) { c.onOutcome = fn }
}

// Consumer reads a consumer group and dispatches messages by topic.
// Messages are handled one at a time per consumer; scale out by running
// more group members.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter   Publisher
	ownsDLQ      bool
	onOutcome    func(*Message, Outcome)
	metrics      *ConsumerMetrics
	fetchBackoff time.Duration
}

// NewConsumer creates a Consumer over a kafka-go group reader.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}
	if cfg.FetchMaxBytes == 0 {
		cfg.FetchMaxBytes = 10 << 20
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       1,
		MaxBytes:       cfg.FetchMaxBytes,
		MaxWait:        cfg.MaxWait,
		SessionTimeout: cfg.SessionTimeout,
		StartOffset:    kafka.FirstOffset,
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	c := newConsumer(kafka.NewReader(readerCfg), cfg, logger, opts...)
	if c.deadLetter == nil && cfg.RetryConfig.DeadLetterTopic != "" {
		p, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers, Acks: "all"}, logger)
		if err != nil {
			return nil, err
		}
		c.deadLetter = p
		c.ownsDLQ = true
	}
	return c, nil
}

func newConsumer(reader ReaderInterface, cfg ConsumerConfig, logger logging.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:       reader,
		config:       cfg,
		logger:       logger.Named("kafka-consumer"),
		handlers:     make(map[string]MessageHandler),
		metrics:      &ConsumerMetrics{},
		fetchBackoff: time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe registers the handler for topic.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop.  It returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.fetchBackoff):
			}
			continue
		}

		c.metrics.MessagesConsumed.Add(1)
		c.metrics.Lag.Store(m.HighWaterMark - m.Offset)

		msg := fromKafkaMessage(m)
		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		} else {
			out := c.processMessage(ctx, msg, handler)
			if ctx.Err() != nil && out.Err != nil && !out.DeadLettered {
				// shutting down mid-message; leave it uncommitted for redelivery
				return
			}
			if c.onOutcome != nil {
				c.onOutcome(msg, out)
			}
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.Int64("offset", m.Offset), logging.Err(err))
		}
	}
}

func (c *Consumer) retryable(err error) bool {
	if c.config.RetryConfig.Retryable != nil {
		return c.config.RetryConfig.Retryable(err)
	}
	return !errors.IsClientError(errors.GetCode(err))
}

// processMessage runs handler with retries and dead-letters the message
// when the retries are exhausted or the error is not retryable.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) Outcome {
	start := time.Now()
	rc := c.config.RetryConfig
	backoff := rc.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	maxBackoff := rc.MaxRetryBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	out := Outcome{}
	for {
		out.Attempts++
		out.Err = handler(ctx, msg)
		if out.Err == nil {
			c.metrics.MessagesProcessed.Add(1)
			out.Duration = time.Since(start)
			return out
		}
		if out.Attempts > rc.MaxRetries || !c.retryable(out.Err) {
			break
		}
		c.metrics.MessagesRetried.Add(1)
		select {
		case <-ctx.Done():
			out.Duration = time.Since(start)
			return out
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.metrics.MessagesFailed.Add(1)
	c.logger.Error("message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", out.Attempts),
		logging.Err(out.Err))

	out.DeadLettered = c.sendToDeadLetter(ctx, msg, out)
	out.Duration = time.Since(start)
	return out
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *Message, out Outcome) bool {
	topic := c.config.RetryConfig.DeadLetterTopic
	if c.deadLetter == nil || topic == "" {
		return false
	}
	headers := make(map[string]string, len(msg.Headers)+4)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorCode] = string(errors.GetCode(out.Err))
	headers[HeaderErrorMessage] = out.Err.Error()
	headers[HeaderAttempts] = strconv.Itoa(out.Attempts)

	dl := &ProducerMessage{Topic: topic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.deadLetter.Publish(ctx, dl); err != nil {
		c.logger.Error("dead-letter publish failed", logging.String("topic", topic), logging.Err(err))
		return false
	}
	c.metrics.MessagesDeadLettered.Add(1)
	return true
}

// Processed returns the number of successfully handled messages.
func (c *Consumer) Processed() int64 { return c.metrics.MessagesProcessed.Load() }

// DeadLettered returns the number of dead-lettered messages.
func (c *Consumer) DeadLettered() int64 { return c.metrics.MessagesDeadLettered.Load() }

// Close stops the loop, waits for the in-flight message and closes the
// reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	err := c.reader.Close()
	if c.ownsDLQ {
		if p, ok := c.deadLetter.(*Producer); ok {
			_ = p.Close()
		}
	}
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.metrics.MessagesConsumed.Load()))
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
	msg := &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.ErrCodeValidation, "auto offset reset must be earliest|latest")
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
