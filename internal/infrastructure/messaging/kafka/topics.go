package kafka

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// Default topic names.
const (
	TopicSentences  = "rephrase.sentences"
	TopicResults    = "rephrase.results"
	TopicDeadLetter = "rephrase.sentences.dlq"
)

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the worker topics.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.  CreateTopics is forwarded to the
// controller by kafka-go.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "failed to dial kafka")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

// CreateTopic creates cfg.  An existing topic is not an error.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.New(errors.ErrCodeValidation, "partitions and replication factor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(cfg.RetentionMs, 10)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if stderrors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "create topic failed").WithDetail("topic=" + cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name))
	return nil
}

// TopicExists reports whether name has partitions.
func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every topic in order, stopping at the first error.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if err := m.CreateTopic(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// WorkerTopics returns the input, output and dead-letter topics of the
// sentence worker.
func WorkerTopics(input, output, deadLetter string) []TopicConfig {
	const day = int64(24 * 3600 * 1000)
	topics := []TopicConfig{
		{Name: input, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 7 * day},
		{Name: output, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 7 * day},
	}
	if deadLetter != "" {
		topics = append(topics, TopicConfig{Name: deadLetter, NumPartitions: 1, ReplicationFactor: 1, RetentionMs: 30 * day})
	}
	return topics
}

//Personal.AI order the ending
