package cli

import (
	"context"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/depparse"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/client"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// Backend runs analyses for the CLI, either in-process or against an API
// server.
type Backend interface {
	Analyze(ctx context.Context, sentence string) (*grammar.OrderedResult, error)
	AnalyzeBatch(ctx context.Context, sentences []string) (*apitypes.BatchAnalyzeResponse, error)
	ListHandlers(ctx context.Context) (*apitypes.HandlerList, error)
	EnableHandler(ctx context.Context, id string) (*apitypes.HandlerList, error)
	DisableHandler(ctx context.Context, id string) (*apitypes.HandlerList, error)
	Close() error
}

// BackendFactory builds the Backend for one CLI invocation.
type BackendFactory func(cfg *config.Config, opts *RootOptions, logger logging.Logger) (Backend, error)

// DefaultBackend talks to opts.ServerAddr when set and otherwise builds a
// local engine from the parser configuration.
func DefaultBackend(cfg *config.Config, opts *RootOptions, logger logging.Logger) (Backend, error) {
	if opts.ServerAddr != "" {
		c, err := client.NewClient(opts.ServerAddr, client.WithTimeout(opts.Timeout))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid --server address").WithDetail(opts.ServerAddr)
		}
		return &remoteBackend{client: c}, nil
	}

	parser, release, err := depparse.Build(cfg, nil, logger)
	if err != nil {
		return nil, err
	}
	engineCfg, err := localEngineConfig(cfg, opts)
	if err != nil {
		_ = release()
		return nil, err
	}
	return NewLocalBackend(parser, engineCfg, cfg.Worker.Concurrency, logger, release)
}

func localEngineConfig(cfg *config.Config, opts *RootOptions) (slotmap.Config, error) {
	ids := cfg.Engine.Handlers
	if len(opts.Handlers) > 0 {
		ids = opts.Handlers
	}
	c, err := slotmap.NewConfig(ids...)
	if err != nil {
		return c, err
	}
	return c.WithTrace(opts.Trace).WithDiagnostics(opts.Trace), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// local
// ─────────────────────────────────────────────────────────────────────────────

type localBackend struct {
	engine  *slotmap.Engine
	batch   *slotmap.BatchProcessor
	release func() error
}

// NewLocalBackend runs analyses in-process.  release, when non-nil, is
// called by Close.
func NewLocalBackend(parser slotmap.DependencyParser, cfg slotmap.Config, concurrency int, logger logging.Logger, release func() error) (Backend, error) {
	e, err := slotmap.NewEngine(parser, cfg, slotmap.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if release == nil {
		release = func() error { return nil }
	}
	return &localBackend{
		engine: e,
		batch: common.NewBatchProcessor[string, *grammar.OrderedResult](
			common.WithBatchName("cli"),
			common.WithMaxConcurrency(concurrency),
			common.WithBatchLogger(logger),
		),
		release: release,
	}, nil
}

func (b *localBackend) Analyze(ctx context.Context, sentence string) (*grammar.OrderedResult, error) {
	return b.engine.Process(ctx, sentence)
}

func (b *localBackend) AnalyzeBatch(ctx context.Context, sentences []string) (*apitypes.BatchAnalyzeResponse, error) {
	return b.engine.ProcessBatch(ctx, b.batch, sentences)
}

func (b *localBackend) ListHandlers(context.Context) (*apitypes.HandlerList, error) {
	list := b.engine.Config().HandlerList()
	return &list, nil
}

func (b *localBackend) EnableHandler(context.Context, string) (*apitypes.HandlerList, error) {
	return nil, errLocalToggle
}

func (b *localBackend) DisableHandler(context.Context, string) (*apitypes.HandlerList, error) {
	return nil, errLocalToggle
}

func (b *localBackend) Close() error {
	_ = b.batch.Shutdown(context.Background())
	return b.release()
}

var errLocalToggle = errors.New(errors.ErrCodeFeatureDisabled, "enabling or disabling handlers needs --server; use --handlers for local runs")

// ─────────────────────────────────────────────────────────────────────────────
// remote
// ─────────────────────────────────────────────────────────────────────────────

type remoteBackend struct {
	client *client.Client
}

func (b *remoteBackend) Analyze(ctx context.Context, sentence string) (*grammar.OrderedResult, error) {
	return b.client.Analysis().Analyze(ctx, sentence)
}

func (b *remoteBackend) AnalyzeBatch(ctx context.Context, sentences []string) (*apitypes.BatchAnalyzeResponse, error) {
	return b.client.Analysis().AnalyzeBatch(ctx, sentences)
}

func (b *remoteBackend) ListHandlers(ctx context.Context) (*apitypes.HandlerList, error) {
	return b.client.Handlers().List(ctx)
}

func (b *remoteBackend) EnableHandler(ctx context.Context, id string) (*apitypes.HandlerList, error) {
	return b.client.Handlers().Enable(ctx, id)
}

func (b *remoteBackend) DisableHandler(ctx context.Context, id string) (*apitypes.HandlerList, error) {
	return b.client.Handlers().Disable(ctx, id)
}

func (b *remoteBackend) Close() error { return nil }

//Personal.AI order the ending
