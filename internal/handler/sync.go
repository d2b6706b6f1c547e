package handler

import (
	"log/slog"
	"net/http"

	"moment/internal/domain/models"
	"moment/internal/httputil"
	syncsvc "moment/internal/service/sync"
)

// SyncHandler exposes the delta-sync endpoint.
type SyncHandler struct {
	orchestrator *syncsvc.Orchestrator
	logger       *slog.Logger
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(orchestrator *syncsvc.Orchestrator, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, logger: logger}
}

// Sync runs one push+pull cycle for the calling device
// POST /sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req models.SyncRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.orchestrator.Sync(r.Context(), userID, &req)
	if err != nil {
		h.logger.Error("sync failed", "user_id", userID, "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HealthCheck reports liveness
// GET /health
func (h *SyncHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
