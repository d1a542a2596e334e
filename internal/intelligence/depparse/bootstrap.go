package depparse

import (
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/database/redis"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
)

// OptionsFromConfig maps the parser and cache sections onto Options.  The
// cache itself is attached by Build.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Provider:       cfg.Parser.Provider,
		Endpoint:       cfg.Parser.Endpoint,
		Timeout:        cfg.Parser.Timeout,
		MaxRetries:     cfg.Parser.MaxRetries,
		ZeroBasedHeads: cfg.Parser.ZeroBasedHeads,
		ConlluPath:     cfg.Parser.ConlluPath,
		CacheTTL:       cfg.Cache.TTL,
	}
}

// Build constructs the configured provider, connecting the Redis parse
// cache when it is enabled.  The returned release func closes that
// connection and is never nil.
func Build(cfg *config.Config, metrics common.GrammarMetrics, log logging.Logger) (Parser, func() error, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	opts := OptionsFromConfig(cfg)
	release := func() error { return nil }

	if cfg.Cache.Enabled {
		client, err := redis.NewClient(&redis.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			PoolSize: cfg.Cache.PoolSize,
		}, log.Named("redis"))
		if err != nil {
			return nil, release, err
		}
		opts.Cache = redis.NewRedisCache(client, log,
			redis.WithPrefix(cfg.Cache.KeyPrefix),
			redis.WithDefaultTTL(cfg.Cache.TTL))
		release = client.Close
	}

	p, err := New(opts, metrics, log)
	if err != nil {
		_ = release()
		return nil, func() error { return nil }, err
	}
	return p, release, nil
}

//Personal.AI order the ending
