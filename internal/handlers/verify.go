package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/services"
)

// VerifyHandler answers authenticity queries against the anchor chain.
type VerifyHandler struct {
	ledger *services.LedgerService
	logger *zap.SugaredLogger
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(ledger *services.LedgerService, logger *zap.SugaredLogger) *VerifyHandler {
	return &VerifyHandler{ledger: ledger, logger: logger}
}

// Verify handles POST /api/verify/{hash}
// An unknown hash is a normal 200 with authentic=false. Tamper evidence
// is a 409 carrying the persisted verification record, so callers can
// tell "never seen" from "chain integrity violated".
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Verify(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		if errors.Is(err, services.ErrChainCorrupted) && rec != nil {
			respondJSON(w, http.StatusConflict, rec)
			return
		}
		if !errors.Is(err, services.ErrInvalidHash) {
			h.logger.Errorw("Verification failed", "error", err)
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// List handles GET /api/verifications
func (h *VerifyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, before, err := listParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.ledger.ListVerifications(r.Context(), limit, before)
	if err != nil {
		h.logger.Errorw("Failed to list verifications", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}
