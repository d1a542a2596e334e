package handlers

import (
	"sync"
	"sync/atomic"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// Reload sources recorded in metrics and logs.
const (
	ReloadSourceAPI    = "api"
	ReloadSourceConfig = "config"
)

// EngineHolder publishes the current engine to request handlers.  Readers
// load the pointer without locking; a request keeps the engine it loaded
// even when a reload lands mid-request.  Updates are serialized so that
// concurrent enable/disable calls never lose each other's change.
type EngineHolder struct {
	cur     atomic.Pointer[slotmap.Engine]
	mu      sync.Mutex
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewEngineHolder publishes e.  metrics may be nil.
func NewEngineHolder(e *slotmap.Engine, metrics *prometheus.AppMetrics, logger logging.Logger) *EngineHolder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &EngineHolder{metrics: metrics, logger: logger.Named("engine-holder")}
	h.cur.Store(e)
	if metrics != nil {
		metrics.EngineActiveHandlers.WithLabelValues().Set(float64(len(e.ListActiveHandlers())))
	}
	return h
}

// Load returns the current engine.
func (h *EngineHolder) Load() *slotmap.Engine { return h.cur.Load() }

// Update derives a new handler set from the current one with fn and swaps
// in an engine running it.
func (h *EngineHolder) Update(source string, fn func(slotmap.Config) (slotmap.Config, error)) (*slotmap.Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur := h.cur.Load()
	cfg, err := fn(cur.Config())
	if err != nil {
		return nil, err
	}
	next := cur.Reconfigure(cfg)
	h.publish(source, next)
	return next, nil
}

// ApplyHandlers replaces the handler set with ids, keeping the trace and
// diagnostics flags of the current config.  An empty ids enables every
// handler.
func (h *EngineHolder) ApplyHandlers(source string, ids []string) (*slotmap.Engine, error) {
	next, err := slotmap.NewConfig(ids...)
	if err != nil {
		return nil, err
	}
	return h.Update(source, func(cur slotmap.Config) (slotmap.Config, error) {
		return next.WithTrace(cur.Trace()).WithDiagnostics(cur.Diagnostics()), nil
	})
}

func (h *EngineHolder) publish(source string, e *slotmap.Engine) {
	if e == nil {
		h.logger.Error("refusing to publish nil engine", logging.Err(errors.Internal("nil engine")))
		return
	}
	h.cur.Store(e)
	active := e.ListActiveHandlers()
	if h.metrics != nil {
		prometheus.RecordEngineReload(h.metrics, source, len(active))
	}
	h.logger.Info("engine reloaded", logging.String("source", source), logging.Strings("handlers", active))
}

//Personal.AI order the ending
