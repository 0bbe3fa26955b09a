package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/services"
)

// StatusHandler handles the legacy status-check endpoints the dashboard
// polls.
type StatusHandler struct {
	statusSvc *services.StatusService
	logger    *zap.SugaredLogger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(ss *services.StatusService, logger *zap.SugaredLogger) *StatusHandler {
	return &StatusHandler{statusSvc: ss, logger: logger}
}

type statusCreateRequest struct {
	ClientName string `json:"client_name"`
}

// Create handles POST /api/status
func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req statusCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.statusSvc.Create(r.Context(), req.ClientName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// List handles GET /api/status
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _, err := listParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	checks, err := h.statusSvc.List(r.Context(), limit)
	if err != nil {
		h.logger.Errorw("Failed to list status checks", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, checks)
}
