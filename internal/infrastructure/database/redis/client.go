// Package redis wraps go-redis for the parse-result cache.  Parsing a
// sentence is the only slow step of an analysis, so providers are decorated
// with a cache keyed by the normalized sentence text.
package redis

import (
	"context"
	"crypto/tls"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeCacheError, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "redis connection failed")
)

// Config holds connection settings.  Mode is standalone, sentinel or cluster.
type Config struct {
	Mode          string        `mapstructure:"mode"`
	Addr          string        `mapstructure:"addr"`
	MasterName    string        `mapstructure:"master_name"`
	SentinelAddrs []string      `mapstructure:"sentinel_addrs"`
	ClusterAddrs  []string      `mapstructure:"cluster_addrs"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PoolSize      int           `mapstructure:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	TLSEnabled    bool          `mapstructure:"tls_enabled"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// Client is a closable handle over a go-redis UniversalClient.
type Client struct {
	rdb    redis.UniversalClient
	config *Config
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects and pings.  A failed ping closes the connection and
// returns ErrConnectionFailed.
func NewClient(cfg *Config, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	applyDefaults(cfg)

	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	var rdb redis.UniversalClient
	switch cfg.Mode {
	case "cluster":
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			TLSConfig:    tlsConfig,
			MaxRetries:   cfg.MaxRetries,
		})
	case "sentinel":
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.SentinelAddrs,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			MinIdleConns:  cfg.MinIdleConns,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
			TLSConfig:     tlsConfig,
			MaxRetries:    cfg.MaxRetries,
		})
	default:
		if cfg.Mode != "" && cfg.Mode != "standalone" {
			log.Warn("Invalid redis mode, defaulting to standalone", logging.String("mode", cfg.Mode))
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			TLSConfig:    tlsConfig,
			MaxRetries:   cfg.MaxRetries,
		})
	}

	client := NewClientFromUniversal(rdb, cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	log.Info("Redis client connected",
		logging.String("mode", cfg.Mode),
		logging.String("addr", cfg.Addr),
	)
	return client, nil
}

// NewClientFromUniversal wraps an existing go-redis client without pinging.
func NewClientFromUniversal(rdb redis.UniversalClient, cfg *Config, log logging.Logger) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, config: cfg, logger: log}
}

func applyDefaults(cfg *Config) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10 * runtime.GOMAXPROCS(0)
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = 2
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
}

func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.rdb.Close()
	if err == nil {
		c.logger.Info("Closed Redis client")
	} else {
		c.logger.Error("Failed to close Redis client", logging.Err(err))
	}
	return err
}

func (c *Client) GetUnderlyingClient() redis.UniversalClient {
	return c.rdb
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.isClosed() {
		cmd := redis.NewStringCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if c.isClosed() {
		cmd := redis.NewStatusCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Set(ctx, key, value, expiration)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.isClosed() {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(ErrClientClosed)
		return cmd
	}
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	return c.rdb.Scan(ctx, cursor, match, count)
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

//Personal.AI order the ending
