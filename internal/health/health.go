package health

import (
	"context"
	"net/http"
	"staybook/pkg/docstore"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"time"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
}

type HealthHandler struct {
	store docstore.Store
	log   *logger.Logger
}

func NewHealthHandler(store docstore.Store, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store: store,
		log:   log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

// Ready reports 503 until the document store answers a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if h.store == nil {
		h.writeUnavailable(w, "missing")
		return
	}
	if err := h.store.Ping(ctx); err != nil {
		h.log.Error("Document store health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		h.writeUnavailable(w, "error")
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
		Store:  "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) writeUnavailable(w http.ResponseWriter, store string) {
	if err := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
		Status: "unavailable",
		Store:  store,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
