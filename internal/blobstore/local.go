package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blockid/guardian-server/internal/fingerprint"
)

const spoolAlgorithmPrefix = "sha256"

// LocalStore keeps payloads in a local content-addressed tree,
// sha256/<aa>/<bb>/<digest>, written via tmp-then-rename so readers never
// observe partial content.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local spool rooted at root.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("spool root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

// Put streams r to disk under fileHash, verifying the bytes actually hash
// to it. Storing content that is already present is a no-op.
func (s *LocalStore) Put(ctx context.Context, fileHash string, r io.Reader) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("spool is not configured")
	}
	if r == nil {
		return 0, fmt.Errorf("reader is required")
	}
	if !fingerprint.Valid(fileHash) {
		return 0, fmt.Errorf("put %q: %w", fileHash, fingerprint.ErrInvalidHash)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "spool-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, err
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != fileHash {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("put %s: %w", fingerprint.Short(fileHash), ErrDigestMismatch)
	}

	dst := s.path(fileHash)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return 0, err
	}
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return n, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		cleanup()
		return 0, err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return n, nil
		}
		cleanup()
		return 0, err
	}
	return n, nil
}

// Open returns a reader over the spooled payload for fileHash. Missing
// content surfaces as os.ErrNotExist.
func (s *LocalStore) Open(ctx context.Context, fileHash string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("spool is not configured")
	}
	if !fingerprint.Valid(fileHash) {
		return nil, fmt.Errorf("open %q: %w", fileHash, fingerprint.ErrInvalidHash)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.path(fileHash))
}

// Delete removes the spooled payload for fileHash. Missing files are
// ignored.
func (s *LocalStore) Delete(ctx context.Context, fileHash string) error {
	if s == nil {
		return fmt.Errorf("spool is not configured")
	}
	if !fingerprint.Valid(fileHash) {
		return fmt.Errorf("delete %q: %w", fileHash, fingerprint.ErrInvalidHash)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(fileHash)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) path(fileHash string) string {
	return filepath.Join(s.root, spoolAlgorithmPrefix, fileHash[0:2], fileHash[2:4], fileHash)
}
