package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/models"
	"github.com/blockid/guardian-server/internal/store"
)

// defaultStatusLimit bounds the legacy status listing.
const defaultStatusLimit = 1000

// StatusService handles the legacy status-check endpoints kept for
// dashboard compatibility.
type StatusService struct {
	records store.Store
	logger  *zap.SugaredLogger
}

// NewStatusService creates a new status service.
func NewStatusService(records store.Store, logger *zap.SugaredLogger) *StatusService {
	return &StatusService{records: records, logger: logger}
}

// Create records a client ping.
func (s *StatusService) Create(ctx context.Context, clientName string) (*models.StatusCheck, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, fmt.Errorf("%w: client_name is required", ErrInvalidInput)
	}

	rec := &models.StatusCheck{
		ID:         uuid.New(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.records.CreateStatusCheck(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.logger.Debugw("Status check recorded", "client", clientName)
	return rec, nil
}

// List returns recorded status checks, most recent first.
func (s *StatusService) List(ctx context.Context, limit int) ([]models.StatusCheck, error) {
	if limit <= 0 || limit > defaultStatusLimit {
		limit = defaultStatusLimit
	}
	out, err := s.records.ListStatusChecks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}
