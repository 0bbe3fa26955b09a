package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockid/guardian-server/internal/fingerprint"
	"github.com/blockid/guardian-server/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "guardian.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mediaFixture(t *testing.T, seed string, uploaded time.Time) *models.MediaRecord {
	t.Helper()
	hash, err := fingerprint.Sum([]byte(seed))
	require.NoError(t, err)
	return &models.MediaRecord{
		ID:                 uuid.New(),
		Filename:           seed + ".png",
		FileHash:           hash,
		FileSize:           int64(len(seed)),
		FileType:           "image/png",
		UploadTimestamp:    uploaded,
		BlockchainTx:       "tx_" + hash[:16] + "_0",
		VerificationStatus: models.StatusVerified,
		DeepfakeAnalysis: &models.DeepfakeAnalysis{
			IsDeepfake:        false,
			ConfidenceScore:   0.91,
			DetectedArtifacts: []string{"no manipulation indicators detected"},
			RiskLevel:         models.RiskLow,
			AnalysisSummary:   seed + " shows no deepfake indicators.",
		},
	}
}

func TestMediaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := mediaFixture(t, "roundtrip", time.Now().UTC())
	require.NoError(t, s.CreateMedia(ctx, rec))

	got, err := s.GetMediaByHash(ctx, rec.FileHash)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Filename, got.Filename)
	assert.Equal(t, rec.FileHash, got.FileHash)
	assert.Equal(t, rec.FileSize, got.FileSize)
	assert.Equal(t, rec.BlockchainTx, got.BlockchainTx)
	assert.Equal(t, models.StatusVerified, got.VerificationStatus)
	require.NotNil(t, got.DeepfakeAnalysis)
	assert.Equal(t, *rec.DeepfakeAnalysis, *got.DeepfakeAnalysis)
}

func TestGetMediaByHashNotFound(t *testing.T) {
	s := openTestStore(t)
	hash, err := fingerprint.Sum([]byte("absent"))
	require.NoError(t, err)

	_, err = s.GetMediaByHash(context.Background(), hash)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateMediaRejectsDuplicateHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := mediaFixture(t, "dup", time.Now().UTC())
	require.NoError(t, s.CreateMedia(ctx, rec))

	again := mediaFixture(t, "dup", time.Now().UTC())
	assert.Error(t, s.CreateMedia(ctx, again))
}

func TestListMediaOrderingLimitAndCursor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := mediaFixture(t, fmt.Sprintf("item-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.CreateMedia(ctx, rec))
	}

	all, err := s.ListMedia(ctx, ListOptions{Limit: 100})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.True(t, !all[i].UploadTimestamp.After(all[i-1].UploadTimestamp),
			"records must be most recent first")
	}
	assert.Equal(t, "item-4.png", all[0].Filename)

	limited, err := s.ListMedia(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "item-4.png", limited[0].Filename)
	assert.Equal(t, "item-3.png", limited[1].Filename)

	// Cursor excludes the boundary timestamp itself.
	older, err := s.ListMedia(ctx, ListOptions{Limit: 100, Before: base.Add(2 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, "item-1.png", older[0].Filename)
	assert.Equal(t, "item-0.png", older[1].Filename)
}

func TestListMediaEmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)
	out, err := s.ListMedia(context.Background(), ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestVerificationRoundTripAndOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	hash, err := fingerprint.Sum([]byte("verified media"))
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	first := &models.VerificationRecord{
		ID:                    uuid.New(),
		FileHash:              hash,
		IsAuthentic:           true,
		VerificationTimestamp: base,
		ConfidenceScore:       0.95,
		AnalysisDetails: models.AnalysisDetails{
			RiskLevel:         models.RiskLow,
			AnalysisSummary:   "clean",
			DetectedArtifacts: []string{"no manipulation indicators detected"},
		},
		BlockchainVerified: true,
	}
	second := &models.VerificationRecord{
		ID:                    uuid.New(),
		FileHash:              hash,
		IsAuthentic:           false,
		VerificationTimestamp: base.Add(time.Minute),
		ConfidenceScore:       0,
		AnalysisDetails:       models.AnalysisDetails{Error: "File not found in blockchain records"},
		BlockchainVerified:    false,
	}
	require.NoError(t, s.CreateVerification(ctx, first))
	require.NoError(t, s.CreateVerification(ctx, second))

	out, err := s.ListVerifications(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, second.ID, out[0].ID)
	assert.Equal(t, first.ID, out[1].ID)
	assert.Equal(t, first.AnalysisDetails, out[1].AnalysisDetails)
	assert.Equal(t, "File not found in blockchain records", out[0].AnalysisDetails.Error)
	assert.True(t, out[1].BlockchainVerified)
	assert.False(t, out[0].BlockchainVerified)
}

func TestStatusCheckRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &models.StatusCheck{
			ID:         uuid.New(),
			ClientName: fmt.Sprintf("client-%d", i),
			Timestamp:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateStatusCheck(ctx, rec))
	}

	out, err := s.ListStatusChecks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "client-2", out[0].ClientName)
	assert.Equal(t, "client-0", out[2].ClientName)
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestMediaWithoutAnalysis(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := mediaFixture(t, "bare", time.Now().UTC())
	rec.DeepfakeAnalysis = nil
	require.NoError(t, s.CreateMedia(ctx, rec))

	got, err := s.GetMediaByHash(ctx, rec.FileHash)
	require.NoError(t, err)
	assert.Nil(t, got.DeepfakeAnalysis)
}
