package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodySize     = 1 << 20
	DefaultMaxBatchSize    = 256
	DefaultRateLimitRPS    = 50.0
	DefaultRateLimitBurst  = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultParserProvider   = "http"
	DefaultParserEndpoint   = "http://localhost:8000/parse"
	DefaultParserTimeout    = 30 * time.Second
	DefaultParserMaxRetries = 3

	DefaultCacheAddr      = "localhost:6379"
	DefaultCachePoolSize  = 10
	DefaultCacheKeyPrefix = "rephrase:"
	DefaultCacheTTL       = 24 * time.Hour

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroupID    = "rephrase-worker"
	DefaultInputTopic      = "rephrase.sentences"
	DefaultOutputTopic     = "rephrase.results"
	DefaultDeadLetterTopic = "rephrase.sentences.dlq"
	DefaultKafkaMaxRetries = 3

	DefaultWorkerConcurrency = 8
	DefaultWorkerItemTimeout = 10 * time.Second

	DefaultMetricsNamespace = "rephrase"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicitly configured values are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.MaxBatchSize == 0 {
		cfg.Server.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = DefaultRateLimitBurst
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}
	if len(cfg.Log.ErrorOutputPaths) == 0 {
		cfg.Log.ErrorOutputPaths = []string{"stderr"}
	}

	// ── Parser ────────────────────────────────────────────────────────────────
	if cfg.Parser.Provider == "" {
		cfg.Parser.Provider = DefaultParserProvider
	}
	if cfg.Parser.Provider == DefaultParserProvider && cfg.Parser.Endpoint == "" {
		cfg.Parser.Endpoint = DefaultParserEndpoint
	}
	if cfg.Parser.Timeout == 0 {
		cfg.Parser.Timeout = DefaultParserTimeout
	}
	if cfg.Parser.MaxRetries == 0 {
		cfg.Parser.MaxRetries = DefaultParserMaxRetries
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = DefaultCacheAddr
	}
	if cfg.Cache.PoolSize == 0 {
		cfg.Cache.PoolSize = DefaultCachePoolSize
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.InputTopic == "" {
		cfg.Kafka.InputTopic = DefaultInputTopic
	}
	if cfg.Kafka.OutputTopic == "" {
		cfg.Kafka.OutputTopic = DefaultOutputTopic
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultDeadLetterTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.ItemTimeout == 0 {
		cfg.Worker.ItemTimeout = DefaultWorkerItemTimeout
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

//Personal.AI order the ending
