package analyzer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockid/guardian-server/internal/fingerprint"
	"github.com/blockid/guardian-server/internal/models"
)

func analyzed(t *testing.T, in Input) *models.DeepfakeAnalysis {
	t.Helper()
	report, err := NewHeuristic().Analyze(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestHeuristicDeterministic(t *testing.T) {
	h, err := fingerprint.Sum([]byte("stable content"))
	require.NoError(t, err)
	in := Input{Filename: "clip.mp4", FileType: "video/mp4", FileSize: 4096, FileHash: h}

	first := analyzed(t, in)
	second := analyzed(t, in)
	assert.Equal(t, first, second)
}

func TestHeuristicReportShape(t *testing.T) {
	h, err := fingerprint.Sum([]byte("some media"))
	require.NoError(t, err)

	report := analyzed(t, Input{Filename: "photo.png", FileType: "image/png", FileSize: 9000, FileHash: h})
	assert.True(t, report.RiskLevel.Valid())
	assert.NotEqual(t, models.RiskUnknown, report.RiskLevel)
	assert.GreaterOrEqual(t, report.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, report.ConfidenceScore, 1.0)
	assert.NotEmpty(t, report.DetectedArtifacts)
	assert.NotEmpty(t, report.AnalysisSummary)
	assert.Equal(t, report.RiskLevel == models.RiskHigh, report.IsDeepfake)
}

func TestHeuristicComputesHashFromContent(t *testing.T) {
	payload := []byte("raw content, no precomputed hash")
	want, err := fingerprint.Sum(payload)
	require.NoError(t, err)

	fromHash := analyzed(t, Input{FileType: "image/jpeg", FileHash: want})
	fromContent := analyzed(t, Input{FileType: "image/jpeg", Content: bytes.NewReader(payload)})
	assert.Equal(t, fromHash.ConfidenceScore, fromContent.ConfidenceScore)
	assert.Equal(t, fromHash.RiskLevel, fromContent.RiskLevel)
}

func TestHeuristicExtensionMismatchLowersConfidence(t *testing.T) {
	h, err := fingerprint.Sum([]byte("container questions"))
	require.NoError(t, err)

	matched := analyzed(t, Input{Filename: "a.mp4", FileType: "video/mp4", FileSize: 1 << 20, FileHash: h})
	mismatched := analyzed(t, Input{Filename: "a.png", FileType: "video/mp4", FileSize: 1 << 20, FileHash: h})

	assert.Less(t, mismatched.ConfidenceScore, matched.ConfidenceScore)
	assert.Contains(t, mismatched.DetectedArtifacts, "container/extension mismatch")
}

func TestHeuristicDegradedWithoutFingerprint(t *testing.T) {
	report := analyzed(t, Input{Filename: "ghost.wav", FileType: "audio/wav"})
	assert.Equal(t, models.RiskUnknown, report.RiskLevel)
	assert.Equal(t, 0.5, report.ConfidenceScore)
	assert.False(t, report.IsDeepfake)
}

func TestHeuristicHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHeuristic().Analyze(ctx, Input{FileHash: "00"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRiskThresholds(t *testing.T) {
	assert.Equal(t, models.RiskLow, riskFor(0.9))
	assert.Equal(t, models.RiskLow, riskFor(lowRiskFloor))
	assert.Equal(t, models.RiskMedium, riskFor(0.6))
	assert.Equal(t, models.RiskMedium, riskFor(mediumRiskFloor))
	assert.Equal(t, models.RiskHigh, riskFor(0.2))
}
