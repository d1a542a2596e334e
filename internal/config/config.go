// Package config defines the configuration structures for the Rephrase
// slot-mapping services.  No I/O lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP API server tunables.
type ServerConfig struct {
	Host            string          `mapstructure:"host"`
	Port            int             `mapstructure:"port"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64           `mapstructure:"max_body_size"`
	MaxBatchSize    int             `mapstructure:"max_batch_size"`
	CORSOrigins     []string        `mapstructure:"cors_origins"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ParserConfig selects and tunes the dependency-parse provider.
type ParserConfig struct {
	Provider       string        `mapstructure:"provider"` // "http" | "conllu"
	Endpoint       string        `mapstructure:"endpoint"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	ZeroBasedHeads bool          `mapstructure:"zero_based_heads"`
	ConlluPath     string        `mapstructure:"conllu_path"`
}

// CacheConfig configures the Redis parse-result cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	PoolSize  int           `mapstructure:"pool_size"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// EngineConfig holds the active handler set.  An empty Handlers list means
// every handler is active.
type EngineConfig struct {
	Handlers    []string `mapstructure:"handlers"`
	Trace       bool     `mapstructure:"trace"`
	Diagnostics bool     `mapstructure:"diagnostics"`
}

// KafkaConfig holds broker and topic settings for the sentence worker.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	InputTopic      string   `mapstructure:"input_topic"`
	OutputTopic     string   `mapstructure:"output_topic"`
	DeadLetterTopic string   `mapstructure:"dead_letter_topic"`
	MaxRetries      int      `mapstructure:"max_retries"`
}

// WorkerConfig holds sentence-worker execution parameters.
type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	ItemTimeout time.Duration `mapstructure:"item_timeout"`
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration shared by the CLI, API server and worker.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeValidation, "config: "+fmt.Sprintf(format, args...))
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.MaxBatchSize < 1 {
		return invalid("server.max_batch_size must be ≥ 1, got %d", c.Server.MaxBatchSize)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst < 1) {
		return invalid("server.rate_limit needs requests_per_second > 0 and burst ≥ 1")
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Parser
	switch c.Parser.Provider {
	case "http":
		if c.Parser.Endpoint == "" {
			return invalid("parser.endpoint is required for the http provider")
		}
	case "conllu":
		if c.Parser.ConlluPath == "" {
			return invalid("parser.conllu_path is required for the conllu provider")
		}
	default:
		return invalid("parser.provider %q is invalid; expected http|conllu", c.Parser.Provider)
	}
	if c.Parser.MaxRetries < 0 {
		return invalid("parser.max_retries must be ≥ 0, got %d", c.Parser.MaxRetries)
	}

	// Cache
	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return invalid("cache.addr is required when the cache is enabled")
		}
		if c.Cache.DB < 0 {
			return invalid("cache.db must be ≥ 0, got %d", c.Cache.DB)
		}
		if c.Cache.TTL <= 0 {
			return invalid("cache.ttl must be positive")
		}
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return invalid("kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return invalid("kafka.group_id is required")
	}
	if c.Kafka.InputTopic == "" || c.Kafka.OutputTopic == "" {
		return invalid("kafka.input_topic and kafka.output_topic are required")
	}
	if c.Kafka.MaxRetries < 0 {
		return invalid("kafka.max_retries must be ≥ 0, got %d", c.Kafka.MaxRetries)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return invalid("worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Metrics
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path %q must start with /", c.Metrics.Path)
	}

	return nil
}

//Personal.AI order the ending
