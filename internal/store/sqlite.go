package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blockid/guardian-server/internal/models"
)

// Row types carry gorm tags so the schema stays out of the API models.
// Analyzer output is stored as a JSON text column.

type mediaRow struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Filename           string `gorm:"size:512"`
	FileHash           string `gorm:"uniqueIndex;size:64"`
	FileSize           int64
	FileType           string    `gorm:"size:64"`
	UploadTimestamp    time.Time `gorm:"index"`
	BlockchainTx       string    `gorm:"size:128"`
	VerificationStatus string    `gorm:"index;size:16"`
	AnalysisJSON       string    `gorm:"type:text"`
}

func (mediaRow) TableName() string { return "media_records" }

type verificationRow struct {
	ID                    string `gorm:"primaryKey;size:36"`
	FileHash              string `gorm:"index;size:64"`
	IsAuthentic           bool
	VerificationTimestamp time.Time `gorm:"index"`
	ConfidenceScore       float64
	DetailsJSON           string `gorm:"type:text"`
	BlockchainVerified    bool
}

func (verificationRow) TableName() string { return "verification_records" }

type statusRow struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ClientName string    `gorm:"size:256"`
	Timestamp  time.Time `gorm:"index"`
}

func (statusRow) TableName() string { return "status_checks" }

// SQLiteStore is the embedded default backend, using the pure-Go sqlite
// driver so deployments need no cgo toolchain.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path and migrates the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.AutoMigrate(&mediaRow{}, &verificationRow{}, &statusRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// CreateMedia inserts a new media record. The unique index on file_hash
// rejects a second record for the same content.
func (s *SQLiteStore) CreateMedia(ctx context.Context, rec *models.MediaRecord) error {
	row, err := mediaToRow(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert media record: %w", err)
	}
	return nil
}

// GetMediaByHash returns the media record anchored for fileHash.
func (s *SQLiteStore) GetMediaByHash(ctx context.Context, fileHash string) (*models.MediaRecord, error) {
	var row mediaRow
	err := s.db.WithContext(ctx).Where("file_hash = ?", fileHash).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query media record: %w", err)
	}
	return mediaFromRow(&row)
}

// ListMedia returns media records, most recent first.
func (s *SQLiteStore) ListMedia(ctx context.Context, opts ListOptions) ([]models.MediaRecord, error) {
	q := s.db.WithContext(ctx).Order("upload_timestamp DESC").Limit(opts.Limit)
	if !opts.Before.IsZero() {
		q = q.Where("upload_timestamp < ?", opts.Before.UTC())
	}
	var rows []mediaRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list media records: %w", err)
	}
	out := make([]models.MediaRecord, 0, len(rows))
	for i := range rows {
		rec, err := mediaFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// CreateVerification appends a verification audit record.
func (s *SQLiteStore) CreateVerification(ctx context.Context, rec *models.VerificationRecord) error {
	row, err := verificationToRow(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

// ListVerifications returns verification records, most recent first.
func (s *SQLiteStore) ListVerifications(ctx context.Context, opts ListOptions) ([]models.VerificationRecord, error) {
	q := s.db.WithContext(ctx).Order("verification_timestamp DESC").Limit(opts.Limit)
	if !opts.Before.IsZero() {
		q = q.Where("verification_timestamp < ?", opts.Before.UTC())
	}
	var rows []verificationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	out := make([]models.VerificationRecord, 0, len(rows))
	for i := range rows {
		rec, err := verificationFromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// CreateStatusCheck appends a legacy status-check record.
func (s *SQLiteStore) CreateStatusCheck(ctx context.Context, rec *models.StatusCheck) error {
	row := &statusRow{
		ID:         rec.ID.String(),
		ClientName: rec.ClientName,
		Timestamp:  rec.Timestamp.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

// ListStatusChecks returns status checks, most recent first.
func (s *SQLiteStore) ListStatusChecks(ctx context.Context, limit int) ([]models.StatusCheck, error) {
	var rows []statusRow
	err := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	out := make([]models.StatusCheck, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("parse status check id %q: %w", row.ID, err)
		}
		out = append(out, models.StatusCheck{ID: id, ClientName: row.ClientName, Timestamp: row.Timestamp})
	}
	return out, nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func mediaToRow(rec *models.MediaRecord) (*mediaRow, error) {
	row := &mediaRow{
		ID:                 rec.ID.String(),
		Filename:           rec.Filename,
		FileHash:           rec.FileHash,
		FileSize:           rec.FileSize,
		FileType:           rec.FileType,
		UploadTimestamp:    rec.UploadTimestamp.UTC(),
		BlockchainTx:       rec.BlockchainTx,
		VerificationStatus: string(rec.VerificationStatus),
	}
	if rec.DeepfakeAnalysis != nil {
		data, err := json.Marshal(rec.DeepfakeAnalysis)
		if err != nil {
			return nil, fmt.Errorf("encode analysis: %w", err)
		}
		row.AnalysisJSON = string(data)
	}
	return row, nil
}

func mediaFromRow(row *mediaRow) (*models.MediaRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse media record id %q: %w", row.ID, err)
	}
	rec := &models.MediaRecord{
		ID:                 id,
		Filename:           row.Filename,
		FileHash:           row.FileHash,
		FileSize:           row.FileSize,
		FileType:           row.FileType,
		UploadTimestamp:    row.UploadTimestamp,
		BlockchainTx:       row.BlockchainTx,
		VerificationStatus: models.VerificationStatus(row.VerificationStatus),
	}
	if row.AnalysisJSON != "" {
		var analysis models.DeepfakeAnalysis
		if err := json.Unmarshal([]byte(row.AnalysisJSON), &analysis); err != nil {
			return nil, fmt.Errorf("decode analysis for %s: %w", row.FileHash, err)
		}
		rec.DeepfakeAnalysis = &analysis
	}
	return rec, nil
}

func verificationToRow(rec *models.VerificationRecord) (*verificationRow, error) {
	details, err := json.Marshal(rec.AnalysisDetails)
	if err != nil {
		return nil, fmt.Errorf("encode analysis details: %w", err)
	}
	return &verificationRow{
		ID:                    rec.ID.String(),
		FileHash:              rec.FileHash,
		IsAuthentic:           rec.IsAuthentic,
		VerificationTimestamp: rec.VerificationTimestamp.UTC(),
		ConfidenceScore:       rec.ConfidenceScore,
		DetailsJSON:           string(details),
		BlockchainVerified:    rec.BlockchainVerified,
	}, nil
}

func verificationFromRow(row *verificationRow) (*models.VerificationRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse verification record id %q: %w", row.ID, err)
	}
	rec := &models.VerificationRecord{
		ID:                    id,
		FileHash:              row.FileHash,
		IsAuthentic:           row.IsAuthentic,
		VerificationTimestamp: row.VerificationTimestamp,
		ConfidenceScore:       row.ConfidenceScore,
		BlockchainVerified:    row.BlockchainVerified,
	}
	if row.DetailsJSON != "" {
		if err := json.Unmarshal([]byte(row.DetailsJSON), &rec.AnalysisDetails); err != nil {
			return nil, fmt.Errorf("decode analysis details for %s: %w", row.FileHash, err)
		}
	}
	return rec, nil
}
