package depparse

import (
	"time"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/database/redis"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// Provider names accepted by New.
const (
	ProviderHTTP   = "http"
	ProviderConllu = "conllu"
)

// Options selects and tunes a provider.
type Options struct {
	Provider       string
	Endpoint       string
	Timeout        time.Duration
	MaxRetries     int
	ZeroBasedHeads bool
	ConlluPath     string

	// Cache, when set, wraps the provider in a CachedParser.
	Cache    redis.Cache
	CacheTTL time.Duration
}

// New builds the configured provider.
func New(opts Options, metrics common.GrammarMetrics, log logging.Logger) (Parser, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	var (
		p   Parser
		err error
	)
	switch opts.Provider {
	case ProviderHTTP, "":
		p, err = NewHTTPParser(opts.Endpoint,
			WithTimeout(opts.Timeout),
			WithRetry(opts.MaxRetries, 0, 0),
			WithZeroBasedHeads(opts.ZeroBasedHeads),
			WithHTTPLogger(log),
		)
	case ProviderConllu:
		p, err = LoadConlluParser(opts.ConlluPath)
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unknown parse provider").WithDetail(opts.Provider)
	}
	if err != nil {
		return nil, err
	}

	log.Info("parse provider ready", logging.String(logging.KeyProvider, p.Name()), logging.Bool("cached", opts.Cache != nil))
	if opts.Cache != nil {
		return NewCachedParser(p, opts.Cache, opts.CacheTTL, metrics, log), nil
	}
	return p, nil
}
