package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/models"
	"github.com/blockid/guardian-server/internal/services"
	"github.com/blockid/guardian-server/internal/store"
)

// serverVersion is reported by the health and banner endpoints.
const serverVersion = "1.0.0"

// apiBanner is the root greeting the dashboard uses to detect the API.
const apiBanner = "BlockID Guardian API - Blockchain Powered Deepfake Protection"

var startTime = time.Now()

// HealthHandler provides health check endpoints
type HealthHandler struct {
	records store.Store
	ledger  *services.LedgerService
	logger  *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(records store.Store, ledger *services.LedgerService, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{records: records, ledger: ledger, logger: logger}
}

// Banner handles GET /api/
func (h *HealthHandler) Banner(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": apiBanner})
}

// Check handles GET /api/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	head, height := h.ledger.ChainHead()
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:      "ok",
		Version:     serverVersion,
		Uptime:      time.Since(startTime).String(),
		ChainHeight: height,
		ChainHead:   head,
	})
}

// Ready handles GET /api/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Ping(r.Context()); err != nil {
		h.logger.Warnw("Readiness probe failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, models.HealthStatus{
			Status:   "not ready",
			Version:  serverVersion,
			Database: "disconnected",
		})
		return
	}

	head, height := h.ledger.ChainHead()
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:      "ready",
		Version:     serverVersion,
		Uptime:      time.Since(startTime).String(),
		Database:    "connected",
		ChainHeight: height,
		ChainHead:   head,
	})
}
