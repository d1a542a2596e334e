package depparse

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/database/redis"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Parser is the provider contract.  It mirrors slotmap.DependencyParser so
// this package does not import the engine.
type Parser interface {
	Parse(ctx context.Context, sentence string) ([]grammar.Token, error)
	Name() string
}

// HealthChecker is implemented by providers that can probe their backend.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CachedParser memoizes another provider in Redis.  Concurrent requests for
// the same sentence share one upstream parse.  Cache failures degrade to a
// direct parse.
type CachedParser struct {
	inner   Parser
	cache   redis.Cache
	ttl     time.Duration
	metrics common.GrammarMetrics
	logger  logging.Logger
}

// NewCachedParser wraps inner.  A zero ttl uses the cache default.
func NewCachedParser(inner Parser, cache redis.Cache, ttl time.Duration, metrics common.GrammarMetrics, log logging.Logger) *CachedParser {
	if metrics == nil {
		metrics = common.NewNoopGrammarMetrics()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedParser{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  log.Named("depparse.cache"),
	}
}

// Name reports the wrapped provider's name.
func (c *CachedParser) Name() string { return c.inner.Name() }

// Parse implements slotmap.DependencyParser.
func (c *CachedParser) Parse(ctx context.Context, sentence string) ([]grammar.Token, error) {
	key := CacheKey(c.inner.Name(), sentence)

	loaded := false
	var tokens []grammar.Token
	err := c.cache.GetOrSet(ctx, key, &tokens, c.ttl, func(ctx context.Context) (interface{}, error) {
		loaded = true
		toks, err := c.inner.Parse(ctx, sentence)
		if err != nil || len(toks) == 0 {
			return nil, err
		}
		return toks, nil
	})
	switch {
	case err == nil:
		c.metrics.RecordCacheAccess(ctx, !loaded, c.inner.Name())
		return tokens, nil
	case stderrors.Is(err, redis.ErrCacheMiss):
		// the provider returned no tokens
		c.metrics.RecordCacheAccess(ctx, !loaded, c.inner.Name())
		return nil, errors.New(errors.ErrCodeParseInput, "parser returned no tokens")
	case loaded || !errors.IsCode(err, errors.ErrCodeCacheError):
		return nil, err
	}

	c.logger.Warn("parse cache unavailable, parsing directly",
		logging.String(logging.KeyProvider, c.inner.Name()), logging.Err(err))
	c.metrics.RecordCacheAccess(ctx, false, c.inner.Name())
	return c.inner.Parse(ctx, sentence)
}

// Health checks the cache and the wrapped provider.
func (c *CachedParser) Health(ctx context.Context) error {
	if err := c.cache.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "parse cache unreachable")
	}
	if h, ok := c.inner.(HealthChecker); ok {
		return h.Health(ctx)
	}
	return nil
}
