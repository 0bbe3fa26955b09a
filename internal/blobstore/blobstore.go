// Package blobstore spools raw media payloads on disk, addressed by their
// SHA-256 fingerprint.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrDigestMismatch is returned by Put when the streamed bytes do not hash
// to the declared fingerprint.
var ErrDigestMismatch = errors.New("content does not match declared fingerprint")

// Store is the payload-storage abstraction used by the ledger service.
// Callers address content by fingerprint; the store never invents keys.
type Store interface {
	Put(ctx context.Context, fileHash string, r io.Reader) (int64, error)
	Open(ctx context.Context, fileHash string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileHash string) error
}
