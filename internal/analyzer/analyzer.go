// Package analyzer defines the authenticity-scoring capability used at
// ingestion. The scoring model is pluggable: the ledger service only sees
// this interface, so a real detection model can replace the built-in
// heuristic without touching ingestion or verification logic.
package analyzer

import (
	"context"
	"io"

	"github.com/blockid/guardian-server/internal/models"
)

// Input carries one media item to score. FileHash is the already-computed
// content fingerprint; Content is the raw bytes for analyzers that need
// them and may be nil when only the fingerprint is available.
type Input struct {
	Filename string
	FileType string
	FileSize int64
	FileHash string
	Content  io.Reader
}

// Analyzer scores a media item for deepfake indicators.
//
// An error means the analyzer could not run at all (ingestion aborts,
// retryable). Degraded-but-usable output is returned as a report with
// RiskUnknown instead.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (*models.DeepfakeAnalysis, error)
}
