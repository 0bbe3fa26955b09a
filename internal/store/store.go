// Package store persists the media, verification, and status-check
// collections the dashboard reads. Two backends implement the same
// interface: an embedded SQLite database (the default) and PostgreSQL
// (selected when DATABASE_URL is set).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/blockid/guardian-server/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ListOptions bounds a listing query. Limit must be positive; a non-zero
// Before returns only records strictly older than it.
type ListOptions struct {
	Limit  int
	Before time.Time
}

// Store abstracts record persistence for the ledger service.
// MediaRecord rows are immutable once written; VerificationRecord and
// StatusCheck rows accumulate append-only.
type Store interface {
	CreateMedia(ctx context.Context, rec *models.MediaRecord) error
	GetMediaByHash(ctx context.Context, fileHash string) (*models.MediaRecord, error)
	ListMedia(ctx context.Context, opts ListOptions) ([]models.MediaRecord, error)

	CreateVerification(ctx context.Context, rec *models.VerificationRecord) error
	ListVerifications(ctx context.Context, opts ListOptions) ([]models.VerificationRecord, error)

	CreateStatusCheck(ctx context.Context, rec *models.StatusCheck) error
	ListStatusChecks(ctx context.Context, limit int) ([]models.StatusCheck, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
