package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
)

// RegistryHandler lists and toggles the grammar handlers of the live engine.
type RegistryHandler struct {
	engines *EngineHolder
	logger  logging.Logger
}

// NewRegistryHandler creates a RegistryHandler.
func NewRegistryHandler(engines *EngineHolder, logger logging.Logger) *RegistryHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RegistryHandler{engines: engines, logger: logger.Named("registry")}
}

// List handles GET /api/v1/handlers.
func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, http.StatusOK, h.engines.Load().Config().HandlerList())
}

// Enable handles PUT /api/v1/handlers/{id}.  Enabling an active handler is
// a no-op.
func (h *RegistryHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, slotmap.Config.AddHandler)
}

// Disable handles DELETE /api/v1/handlers/{id}.
func (h *RegistryHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, slotmap.Config.RemoveHandler)
}

func (h *RegistryHandler) toggle(w http.ResponseWriter, r *http.Request, op func(slotmap.Config, string) (slotmap.Config, error)) {
	id := chi.URLParam(r, "id")
	e, err := h.engines.Update(ReloadSourceAPI, func(cur slotmap.Config) (slotmap.Config, error) {
		return op(cur, id)
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.logger.Info("handler set changed",
		logging.String("method", r.Method),
		logging.Handler(id),
		logging.Strings("active", e.ListActiveHandlers()))
	writeSuccess(w, r, http.StatusOK, e.Config().HandlerList())
}

//Personal.AI order the ending
