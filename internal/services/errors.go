// Package services contains business logic layers.
// Services are called by handlers and coordinate the anchor chain, the
// record store, the content spool, and the authenticity analyzer.
package services

import (
	"errors"
	"fmt"

	"github.com/blockid/guardian-server/internal/anchor"
)

// Error taxonomy. Handlers map these to HTTP statuses with errors.Is;
// services wrap them with request context via %w.
var (
	// ErrInvalidInput marks client mistakes in the upload itself:
	// empty content, oversized content, unusable metadata.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedMedia is the InvalidInput case for MIME types outside
	// the image/video/audio allowlist.
	ErrUnsupportedMedia = fmt.Errorf("%w: unsupported media type", ErrInvalidInput)

	// ErrInvalidHash marks a verification query that is not a well-formed
	// fingerprint and was never looked up.
	ErrInvalidHash = errors.New("malformed file hash")

	// ErrNotFound marks record lookups that came up empty. Verification of
	// an unknown hash does NOT return this; an unknown hash is a normal
	// verify outcome, not an error.
	ErrNotFound = errors.New("not found")

	// ErrChainCorrupted is tamper evidence from the anchor chain. It is
	// terminal, never retried, and never conflated with ErrNotFound.
	ErrChainCorrupted = anchor.ErrCorrupted

	// ErrAnalyzerUnavailable means the authenticity analyzer could not run.
	// Ingestion aborts with nothing persisted; the client may retry.
	ErrAnalyzerUnavailable = errors.New("authenticity analyzer unavailable")

	// ErrStorage marks persistence failures in the record store, spool, or
	// chain. Ingestion aborts with nothing persisted; the client may retry.
	ErrStorage = errors.New("storage failure")
)
