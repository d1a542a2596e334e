// Package worker consumes queued sentences from Kafka, maps them onto slots
// and publishes the results.
//
// A sentence that cannot be analysed for a reason inherent to its input
// (empty, unparseable, unknown to the treebank) still produces a
// ResultMessage carrying the error.  Transient failures are returned to the
// consumer, which retries them and finally routes the message to the
// dead-letter topic.
package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/messaging/kafka"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Analyzer runs one sentence through the slot engine.  *slotmap.Engine
// satisfies it.
type Analyzer interface {
	Process(ctx context.Context, sentence string) (*grammar.OrderedResult, error)
}

// Subscriber is the consumer side of the pipeline.  *kafka.Consumer
// satisfies it.
type Subscriber interface {
	Subscribe(topic string, handler kafka.MessageHandler)
	Start(ctx context.Context) error
	Close() error
}

// Config names the topics and the per-sentence deadline.
type Config struct {
	InputTopic      string
	OutputTopic     string
	DeadLetterTopic string
	ItemTimeout     time.Duration
}

// Worker turns SentenceMessages into ResultMessages.
type Worker struct {
	cfg     Config
	engine  Analyzer
	results kafka.Publisher
	metrics *prometheus.AppMetrics
	logger  logging.Logger

	mu       sync.Mutex
	attempts map[string]int
}

// New creates a Worker.  metrics may be nil.
func New(cfg Config, engine Analyzer, results kafka.Publisher, metrics *prometheus.AppMetrics, logger logging.Logger) (*Worker, error) {
	if engine == nil || results == nil {
		return nil, errors.InvalidParam("worker needs an engine and a result publisher")
	}
	if cfg.InputTopic == "" || cfg.OutputTopic == "" {
		return nil, errors.InvalidParam("worker needs input and output topics")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Worker{
		cfg:      cfg,
		engine:   engine,
		results:  results,
		metrics:  metrics,
		logger:   logger.Named("worker"),
		attempts: make(map[string]int),
	}, nil
}

// Run subscribes to the input topic and blocks until ctx is done, then
// closes the subscriber after its in-flight message.
func (w *Worker) Run(ctx context.Context, sub Subscriber) error {
	sub.Subscribe(w.cfg.InputTopic, w.Handle)
	if err := sub.Start(ctx); err != nil {
		return err
	}
	w.logger.Info("worker running",
		logging.String("input", w.cfg.InputTopic),
		logging.String("output", w.cfg.OutputTopic))

	<-ctx.Done()
	return sub.Close()
}

// Handle processes one SentenceMessage.  It is the kafka.MessageHandler of
// the input topic.
func (w *Worker) Handle(ctx context.Context, msg *kafka.Message) error {
	attempt := w.nextAttempt(msg)
	if w.metrics != nil {
		g := w.metrics.WorkerInFlight.WithLabelValues(msg.Topic)
		g.Inc()
		defer g.Dec()
	}

	var in apitypes.SentenceMessage
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "malformed sentence message")
	}
	if in.ID == "" {
		in.ID = string(msg.Key)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	start := time.Now()
	itemCtx := ctx
	if w.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, w.cfg.ItemTimeout)
		defer cancel()
	}
	res, err := w.engine.Process(itemCtx, in.Sentence)
	if err != nil && transient(err) {
		w.logger.Warn("sentence failed, will retry",
			logging.String("id", in.ID),
			logging.Int("attempt", attempt),
			logging.Err(err))
		return err
	}

	out := apitypes.ResultMessage{
		ID:          in.ID,
		Sentence:    in.Sentence,
		Result:      res,
		Attempts:    attempt,
		DurationMs:  float64(time.Since(start).Microseconds()) / 1000.0,
		ProcessedAt: apitypes.NewTimestamp(),
	}
	if err != nil {
		out.Error = slotmap.ErrorDetail(err, common.ItemStatusFailed)
	}
	return w.publish(ctx, out)
}

func (w *Worker) publish(ctx context.Context, out apitypes.ResultMessage) error {
	value, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "encode result message")
	}
	headers := map[string]string{"content-type": "application/json"}
	if out.Error != nil {
		headers[kafka.HeaderErrorCode] = out.Error.Code
	}
	err = w.results.Publish(ctx, &kafka.ProducerMessage{
		Topic:   w.cfg.OutputTopic,
		Key:     []byte(out.ID),
		Value:   value,
		Headers: headers,
	})
	if err != nil {
		if w.metrics != nil {
			w.metrics.WorkerPublishFailures.WithLabelValues(w.cfg.OutputTopic).Inc()
		}
		if errors.GetCode(err) != errors.CodeUnknown {
			return err
		}
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "publish result message")
	}
	return nil
}

// Observe records the final outcome of a consumed message.  Pass it to the
// consumer through kafka.WithOutcomeHook.
func (w *Worker) Observe(msg *kafka.Message, out kafka.Outcome) {
	w.mu.Lock()
	delete(w.attempts, messageKey(msg))
	w.mu.Unlock()

	status := "ok"
	switch {
	case out.DeadLettered:
		status = "dead_letter"
	case out.Err != nil:
		status = "failed"
	}
	if w.metrics == nil {
		return
	}
	prometheus.RecordWorkerMessage(w.metrics, msg.Topic, status, out.Duration)
	if out.DeadLettered {
		prometheus.RecordDeadLetter(w.metrics, msg.Topic, string(errors.GetCode(out.Err)))
	}
}

func (w *Worker) nextAttempt(msg *kafka.Message) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := messageKey(msg)
	w.attempts[k]++
	return w.attempts[k]
}

func messageKey(msg *kafka.Message) string {
	return msg.Topic + "/" + strconv.Itoa(msg.Partition) + "/" + strconv.FormatInt(msg.Offset, 10)
}

// transient reports whether err may succeed on a later attempt.
func transient(err error) bool {
	return errors.IsCode(err, errors.ErrCodeParserUnavailable) ||
		errors.IsCode(err, errors.ErrCodeTimeout) ||
		errors.IsCode(err, errors.ErrCodeCacheError)
}

// Retryable is the consumer retry predicate matching Handle's contract.
func Retryable(err error) bool {
	return transient(err) || errors.IsCode(err, errors.ErrCodeMessageQueue)
}

//Personal.AI order the ending
