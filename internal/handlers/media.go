package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/services"
)

// uploadFormOverhead covers multipart boundaries and part headers so the
// request-body cap only rejects payloads the content limit itself would.
const uploadFormOverhead = 64 << 10

// MediaHandler handles media ingestion and listing endpoints.
type MediaHandler struct {
	ledger         *services.LedgerService
	maxUploadBytes int64
	logger         *zap.SugaredLogger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(ledger *services.LedgerService, maxUploadBytes int64, logger *zap.SugaredLogger) *MediaHandler {
	return &MediaHandler{ledger: ledger, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload handles POST /api/upload
// Accepts a multipart form with a single "file" part, fingerprints it,
// and anchors it. Re-uploading identical content returns the existing
// record.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+uploadFormOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(w, http.StatusBadRequest, uploadLimitDetail(h.maxUploadBytes))
			return
		}
		respondError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(w, http.StatusBadRequest, uploadLimitDetail(h.maxUploadBytes))
			return
		}
		respondError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	rec, err := h.ledger.Submit(r.Context(), services.SubmitInput{
		Filename: header.Filename,
		FileType: header.Header.Get("Content-Type"),
		Content:  content,
	})
	if err != nil {
		if !errors.Is(err, services.ErrInvalidInput) {
			h.logger.Errorw("Upload failed", "filename", header.Filename, "error", err)
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// List handles GET /api/media
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, before, err := listParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.ledger.ListMedia(r.Context(), limit, before)
	if err != nil {
		h.logger.Errorw("Failed to list media", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// listParams parses the ?limit= and ?before= parameters shared by the
// listing endpoints. Bounds are enforced by the services.
func listParams(r *http.Request) (int, time.Time, error) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, time.Time{}, fmt.Errorf("limit must be a positive integer")
		}
		limit = n
	}

	var before time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("before must be an RFC3339 timestamp")
		}
		before = t
	}
	return limit, before, nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func uploadLimitDetail(limit int64) string {
	return fmt.Sprintf("Upload exceeds the %d byte limit", limit)
}
