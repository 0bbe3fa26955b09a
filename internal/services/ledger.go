package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blockid/guardian-server/internal/analyzer"
	"github.com/blockid/guardian-server/internal/anchor"
	"github.com/blockid/guardian-server/internal/blobstore"
	"github.com/blockid/guardian-server/internal/fingerprint"
	"github.com/blockid/guardian-server/internal/models"
	"github.com/blockid/guardian-server/internal/store"
)

// Listing bounds for the query surface, matching what the dashboard
// requests.
const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// allowedMediaTypes is the ingestion MIME allowlist: the image, video, and
// audio families the verification pipeline understands.
var allowedMediaTypes = map[string]struct{}{
	"image/jpeg": {}, "image/png": {}, "image/gif": {}, "image/webp": {},
	"video/mp4": {}, "video/avi": {}, "video/mov": {}, "video/webm": {},
	"audio/mp3": {}, "audio/wav": {}, "audio/ogg": {}, "audio/m4a": {},
}

// AnchorLog is the tamper-evident chain the ledger commits fingerprints
// to. The concrete implementation is the LevelDB hash chain in
// internal/anchor; a real distributed ledger could substitute behind the
// same interface.
type AnchorLog interface {
	AppendWith(ctx context.Context, fileHash string, commit func(*anchor.Entry) error) (*anchor.Entry, error)
	VerifyChain(ctx context.Context, fileHash string) (*anchor.Entry, error)
	Head() (string, int64)
	Audit(ctx context.Context) (*anchor.AuditReport, error)
}

var _ AnchorLog = (*anchor.Log)(nil)

// LedgerConfig carries the ingestion limits and verdict policy.
type LedgerConfig struct {
	MaxUploadBytes int64
	RetainContent  bool
	Policy         VerdictPolicy
}

// LedgerService orchestrates ingestion and verification: fingerprint,
// analyze, anchor, and answer authenticity queries against the chain.
type LedgerService struct {
	records  store.Store
	chain    AnchorLog
	analyzer analyzer.Analyzer
	spool    blobstore.Store
	cfg      LedgerConfig
	logger   *zap.SugaredLogger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(records store.Store, chain AnchorLog, az analyzer.Analyzer, spool blobstore.Store, cfg LedgerConfig, logger *zap.SugaredLogger) *LedgerService {
	return &LedgerService{
		records:  records,
		chain:    chain,
		analyzer: az,
		spool:    spool,
		cfg:      cfg,
		logger:   logger,
	}
}

// SubmitInput is one uploaded media item.
type SubmitInput struct {
	Filename string
	FileType string
	Content  []byte
}

// Submit ingests media: fingerprint, analyze, anchor, persist. Identical
// content is idempotent and returns the already-ingested record without a
// second anchor entry. The anchor append and the record insert succeed or
// fail together; no partial state survives an abort.
func (s *LedgerService) Submit(ctx context.Context, in SubmitInput) (rec *models.MediaRecord, err error) {
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(in.Content)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: upload of %d bytes exceeds the %d byte limit",
			ErrInvalidInput, len(in.Content), s.cfg.MaxUploadBytes)
	}
	mediaType, err := normalizeMediaType(in.FileType)
	if err != nil {
		return nil, err
	}

	fileHash, err := fingerprint.Sum(in.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Identical content is the same logical media item: return the record
	// that already anchors it.
	existing, err := s.records.GetMediaByHash(ctx, fileHash)
	if err == nil {
		s.logger.Infow("Duplicate upload deduplicated",
			"hash", fingerprint.Short(fileHash),
			"filename", in.Filename,
		)
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: probe media record: %v", ErrStorage, err)
	}

	// Spool the payload so the analyzer (and any later re-analysis) can
	// read it from disk. Scratch content is removed again unless the
	// deployment retains it.
	spooled := false
	if s.spool != nil {
		if _, err := s.spool.Put(ctx, fileHash, bytes.NewReader(in.Content)); err != nil {
			return nil, fmt.Errorf("%w: spool content: %v", ErrStorage, err)
		}
		spooled = true
	}
	defer func() {
		if !spooled {
			return
		}
		if err != nil || !s.cfg.RetainContent {
			if derr := s.spool.Delete(ctx, fileHash); derr != nil {
				s.logger.Warnw("Failed to remove spooled content",
					"hash", fingerprint.Short(fileHash), "error", derr)
			}
		}
	}()

	// Analysis may be slow (model inference); it runs before the anchor
	// critical section so it never holds the chain's writer lock.
	report, err := s.analyzer.Analyze(ctx, analyzer.Input{
		Filename: in.Filename,
		FileType: mediaType,
		FileSize: int64(len(in.Content)),
		FileHash: fileHash,
		Content:  bytes.NewReader(in.Content),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}

	status := models.StatusVerified
	if report.RiskLevel == models.RiskHigh {
		status = models.StatusFlagged
	}
	rec = &models.MediaRecord{
		ID:                 uuid.New(),
		Filename:           in.Filename,
		FileHash:           fileHash,
		FileSize:           int64(len(in.Content)),
		FileType:           mediaType,
		UploadTimestamp:    time.Now().UTC(),
		VerificationStatus: status,
		DeepfakeAnalysis:   report,
	}

	// Anchor and insert as one logical transaction: the record insert runs
	// inside the append critical section, and a failed insert unwinds the
	// chain entry.
	entry, err := s.chain.AppendWith(ctx, fileHash, func(e *anchor.Entry) error {
		rec.BlockchainTx = anchorTx(fileHash, e.SequenceIndex)
		if ierr := s.records.CreateMedia(ctx, rec); ierr != nil {
			return fmt.Errorf("%w: insert media record: %v", ErrStorage, ierr)
		}
		return nil
	})
	if errors.Is(err, anchor.ErrAlreadyAnchored) {
		// Lost an ingestion race for the same content; the winner's record
		// is committed by the time the append lock was released.
		winner, gerr := s.records.GetMediaByHash(ctx, fileHash)
		if gerr != nil {
			return nil, fmt.Errorf("%w: load deduplicated record: %v", ErrStorage, gerr)
		}
		return winner, nil
	}
	if err != nil {
		if errors.Is(err, ErrStorage) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: anchor append: %v", ErrStorage, err)
	}

	s.logger.Infow("Media anchored",
		"hash", fingerprint.Short(fileHash),
		"sequence", entry.SequenceIndex,
		"filename", in.Filename,
		"risk", report.RiskLevel,
		"status", status,
	)
	return rec, nil
}

// Verify answers "is this hash authentic?" against the anchor chain and
// records the query as an append-only VerificationRecord. An unknown hash
// is a normal outcome, not an error. Tamper evidence is the exception: the
// verification record is still persisted and returned, together with an
// error matching ErrChainCorrupted, so callers can surface the violation
// distinctly.
func (s *LedgerService) Verify(ctx context.Context, rawHash string) (*models.VerificationRecord, error) {
	fileHash := strings.ToLower(strings.TrimSpace(rawHash))
	if !fingerprint.Valid(fileHash) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, rawHash)
	}

	rec := &models.VerificationRecord{
		ID:                    uuid.New(),
		FileHash:              fileHash,
		VerificationTimestamp: time.Now().UTC(),
	}

	var corruption error
	entry, err := s.chain.VerifyChain(ctx, fileHash)
	switch {
	case errors.Is(err, anchor.ErrNotFound):
		rec.AnalysisDetails = models.AnalysisDetails{Error: "File not found in blockchain records"}

	case errors.Is(err, anchor.ErrCorrupted):
		// Tamper detected. This outranks any stored analysis.
		corruption = err
		rec.AnalysisDetails = models.AnalysisDetails{Error: "integrity violation: " + err.Error()}

	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: verify chain: %v", ErrStorage, err)

	default:
		rec.BlockchainVerified = true
		media, merr := s.records.GetMediaByHash(ctx, fileHash)
		switch {
		case errors.Is(merr, store.ErrNotFound):
			// Anchored but the record store has no row for it. Should not
			// happen given the ingestion transaction; report it rather than
			// certify unanalyzed content.
			s.logger.Errorw("Anchored hash has no media record",
				"hash", fingerprint.Short(fileHash), "sequence", entry.SequenceIndex)
			rec.AnalysisDetails = models.AnalysisDetails{Error: "no analysis available"}

		case merr != nil:
			return nil, fmt.Errorf("%w: load media record: %v", ErrStorage, merr)

		default:
			authentic, confidence := s.cfg.Policy.Judge(media.DeepfakeAnalysis)
			rec.IsAuthentic = authentic
			rec.ConfidenceScore = confidence
			rec.AnalysisDetails = snapshotDetails(media.DeepfakeAnalysis)
		}
	}

	if serr := s.records.CreateVerification(ctx, rec); serr != nil {
		if corruption != nil {
			s.logger.Errorw("Chain corruption detected but audit record insert failed",
				"hash", fingerprint.Short(fileHash), "corruption", corruption, "error", serr)
		}
		return nil, fmt.Errorf("%w: insert verification record: %v", ErrStorage, serr)
	}

	if corruption != nil {
		s.logger.Errorw("Chain corruption surfaced by verify",
			"hash", fingerprint.Short(fileHash), "error", corruption)
		return rec, corruption
	}

	s.logger.Infow("Verification recorded",
		"hash", fingerprint.Short(fileHash),
		"authentic", rec.IsAuthentic,
		"chain_verified", rec.BlockchainVerified,
		"confidence", rec.ConfidenceScore,
	)
	return rec, nil
}

// ListMedia returns ingested media, most recent first.
func (s *LedgerService) ListMedia(ctx context.Context, limit int, before time.Time) ([]models.MediaRecord, error) {
	out, err := s.records.ListMedia(ctx, store.ListOptions{Limit: clampLimit(limit), Before: before})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}

// ListVerifications returns the verification history, most recent first.
func (s *LedgerService) ListVerifications(ctx context.Context, limit int, before time.Time) ([]models.VerificationRecord, error) {
	out, err := s.records.ListVerifications(ctx, store.ListOptions{Limit: clampLimit(limit), Before: before})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return out, nil
}

// Audit walks the whole chain and reports every entry's digest validity.
func (s *LedgerService) Audit(ctx context.Context) (*anchor.AuditReport, error) {
	report, err := s.chain.Audit(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain audit: %v", ErrStorage, err)
	}
	if !report.Valid {
		s.logger.Errorw("Chain audit found tamper evidence", "height", report.Height)
	}
	return report, nil
}

// ChainHead reports the chain's head digest and height.
func (s *LedgerService) ChainHead() (string, int64) {
	return s.chain.Head()
}

// anchorTx derives the human-readable anchor reference shown next to a
// record. It commits to the chain position, so retries and restarts
// reproduce the same reference.
func anchorTx(fileHash string, seq int64) string {
	return fmt.Sprintf("tx_%s_%d", fileHash[:16], seq)
}

func normalizeMediaType(declared string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrUnsupportedMedia, declared)
	}
	mediaType = strings.ToLower(mediaType)
	if _, ok := allowedMediaTypes[mediaType]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnsupportedMedia, declared)
	}
	return mediaType, nil
}

func snapshotDetails(a *models.DeepfakeAnalysis) models.AnalysisDetails {
	if a == nil {
		return models.AnalysisDetails{Error: "no analysis available"}
	}
	return models.AnalysisDetails{
		RiskLevel:         a.RiskLevel,
		AnalysisSummary:   a.AnalysisSummary,
		DetectedArtifacts: append([]string(nil), a.DetectedArtifacts...),
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
