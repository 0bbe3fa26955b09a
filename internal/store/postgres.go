package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockid/guardian-server/internal/models"
)

// postgresSchema is applied statement by statement on startup. Every
// statement is idempotent so repeated boots against the same database
// are safe.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS media_records (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		file_hash TEXT NOT NULL UNIQUE,
		file_size BIGINT NOT NULL,
		file_type TEXT NOT NULL,
		upload_timestamp TIMESTAMPTZ NOT NULL,
		blockchain_tx TEXT NOT NULL DEFAULT '',
		verification_status TEXT NOT NULL,
		deepfake_analysis JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_records_uploaded ON media_records (upload_timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS verification_records (
		id UUID PRIMARY KEY,
		file_hash TEXT NOT NULL,
		is_authentic BOOLEAN NOT NULL,
		verification_timestamp TIMESTAMPTZ NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		analysis_details JSONB NOT NULL,
		blockchain_verified BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_verification_records_verified ON verification_records (verification_timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_verification_records_hash ON verification_records (file_hash)`,
	`CREATE TABLE IF NOT EXISTS status_checks (
		id UUID PRIMARY KEY,
		client_name TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
}

// PostgresStore persists records in PostgreSQL via pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool and ensures the schema
// exists.
func NewPostgres(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	for _, stmt := range postgresSchema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &PostgresStore{db: db}, nil
}

// CreateMedia inserts a new media record.
func (s *PostgresStore) CreateMedia(ctx context.Context, rec *models.MediaRecord) error {
	query := `
		INSERT INTO media_records (id, filename, file_hash, file_size, file_type, upload_timestamp, blockchain_tx, verification_status, deepfake_analysis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		rec.ID,
		rec.Filename,
		rec.FileHash,
		rec.FileSize,
		rec.FileType,
		rec.UploadTimestamp.UTC(),
		rec.BlockchainTx,
		string(rec.VerificationStatus),
		rec.DeepfakeAnalysis,
	)
	if err != nil {
		return fmt.Errorf("insert media record: %w", err)
	}
	return nil
}

// GetMediaByHash returns the media record anchored for fileHash.
func (s *PostgresStore) GetMediaByHash(ctx context.Context, fileHash string) (*models.MediaRecord, error) {
	query := `SELECT id, filename, file_hash, file_size, file_type, upload_timestamp, blockchain_tx, verification_status, deepfake_analysis
		FROM media_records WHERE file_hash = $1`

	var rec models.MediaRecord
	row := s.db.QueryRow(ctx, query, fileHash)
	err := row.Scan(&rec.ID, &rec.Filename, &rec.FileHash, &rec.FileSize, &rec.FileType,
		&rec.UploadTimestamp, &rec.BlockchainTx, &rec.VerificationStatus, &rec.DeepfakeAnalysis)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query media record: %w", err)
	}
	return &rec, nil
}

// ListMedia returns media records, most recent first.
func (s *PostgresStore) ListMedia(ctx context.Context, opts ListOptions) ([]models.MediaRecord, error) {
	query := `
		SELECT id, filename, file_hash, file_size, file_type, upload_timestamp, blockchain_tx, verification_status, deepfake_analysis
		FROM media_records
		WHERE $1::timestamptz IS NULL OR upload_timestamp < $1
		ORDER BY upload_timestamp DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, beforeParam(opts.Before), opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	defer rows.Close()

	out := make([]models.MediaRecord, 0)
	for rows.Next() {
		var rec models.MediaRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.FileHash, &rec.FileSize, &rec.FileType,
			&rec.UploadTimestamp, &rec.BlockchainTx, &rec.VerificationStatus, &rec.DeepfakeAnalysis); err != nil {
			return nil, fmt.Errorf("scan media record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateVerification appends a verification audit record.
func (s *PostgresStore) CreateVerification(ctx context.Context, rec *models.VerificationRecord) error {
	query := `
		INSERT INTO verification_records (id, file_hash, is_authentic, verification_timestamp, confidence_score, analysis_details, blockchain_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		rec.ID,
		rec.FileHash,
		rec.IsAuthentic,
		rec.VerificationTimestamp.UTC(),
		rec.ConfidenceScore,
		rec.AnalysisDetails,
		rec.BlockchainVerified,
	)
	if err != nil {
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

// ListVerifications returns verification records, most recent first.
func (s *PostgresStore) ListVerifications(ctx context.Context, opts ListOptions) ([]models.VerificationRecord, error) {
	query := `
		SELECT id, file_hash, is_authentic, verification_timestamp, confidence_score, analysis_details, blockchain_verified
		FROM verification_records
		WHERE $1::timestamptz IS NULL OR verification_timestamp < $1
		ORDER BY verification_timestamp DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, beforeParam(opts.Before), opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	out := make([]models.VerificationRecord, 0)
	for rows.Next() {
		var rec models.VerificationRecord
		if err := rows.Scan(&rec.ID, &rec.FileHash, &rec.IsAuthentic, &rec.VerificationTimestamp,
			&rec.ConfidenceScore, &rec.AnalysisDetails, &rec.BlockchainVerified); err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateStatusCheck appends a legacy status-check record.
func (s *PostgresStore) CreateStatusCheck(ctx context.Context, rec *models.StatusCheck) error {
	query := `INSERT INTO status_checks (id, client_name, timestamp) VALUES ($1, $2, $3)`

	_, err := s.db.Exec(ctx, query, rec.ID, rec.ClientName, rec.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

// ListStatusChecks returns status checks, most recent first.
func (s *PostgresStore) ListStatusChecks(ctx context.Context, limit int) ([]models.StatusCheck, error) {
	query := `SELECT id, client_name, timestamp FROM status_checks ORDER BY timestamp DESC LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close()

	out := make([]models.StatusCheck, 0)
	for rows.Next() {
		var rec models.StatusCheck
		if err := rows.Scan(&rec.ID, &rec.ClientName, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// beforeParam maps a zero time to SQL NULL so the cursor predicate
// collapses away.
func beforeParam(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
