package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ChainAuditWorker periodically re-audits the whole anchor chain so
// tampering is noticed even when nobody happens to verify the damaged
// entries.
type ChainAuditWorker struct {
	chain  AnchorLog
	logger *zap.SugaredLogger
}

// NewChainAuditWorker creates a new background audit worker.
func NewChainAuditWorker(chain AnchorLog, logger *zap.SugaredLogger) *ChainAuditWorker {
	return &ChainAuditWorker{chain: chain, logger: logger}
}

// Start begins the periodic audit loop. It blocks until ctx is cancelled.
func (w *ChainAuditWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial audit on boot
	w.audit(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Chain audit worker stopped")
			return
		case <-ticker.C:
			w.audit(ctx)
		}
	}
}

func (w *ChainAuditWorker) audit(ctx context.Context) {
	report, err := w.chain.Audit(ctx)
	if err != nil {
		w.logger.Errorw("Chain audit failed", "error", err)
		return
	}

	if report.Valid {
		w.logger.Infow("Chain audit clean", "height", report.Height)
		return
	}

	firstInvalid := int64(-1)
	for _, e := range report.Entries {
		if !e.Valid {
			firstInvalid = e.SequenceIndex
			break
		}
	}
	w.logger.Errorw("Chain audit found tamper evidence",
		"height", report.Height,
		"first_invalid", firstInvalid,
	)
}
