package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockid/guardian-server/internal/fingerprint"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestPutOpenDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	content := []byte("spooled media bytes")
	hash, err := fingerprint.Sum(content)
	require.NoError(t, err)

	n, err := s.Put(ctx, hash, bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	rc, err := s.Open(ctx, hash)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, got)

	require.NoError(t, s.Delete(ctx, hash))
	_, err = s.Open(ctx, hash)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPutRejectsDigestMismatch(t *testing.T) {
	s := newTestStore(t)
	hash, err := fingerprint.Sum([]byte("the declared content"))
	require.NoError(t, err)

	_, err = s.Put(context.Background(), hash, strings.NewReader("different content"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDigestMismatch))

	// Nothing may be left behind for the declared hash.
	_, err = s.Open(context.Background(), hash)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPutIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	content := []byte("same bytes twice")
	hash, err := fingerprint.Sum(content)
	require.NoError(t, err)

	_, err = s.Put(ctx, hash, bytes.NewReader(content))
	require.NoError(t, err)
	n, err := s.Put(ctx, hash, bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	rc, err := s.Open(ctx, hash)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRejectsMalformedHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "nope", strings.NewReader("x"))
	assert.True(t, errors.Is(err, fingerprint.ErrInvalidHash))

	_, err = s.Open(ctx, "nope")
	assert.True(t, errors.Is(err, fingerprint.ErrInvalidHash))

	err = s.Delete(ctx, "nope")
	assert.True(t, errors.Is(err, fingerprint.ErrInvalidHash))
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	hash, err := fingerprint.Sum([]byte("never stored"))
	require.NoError(t, err)
	assert.NoError(t, s.Delete(context.Background(), hash))
}

func TestNewLocalStoreRequiresRoot(t *testing.T) {
	_, err := NewLocalStore("   ")
	assert.Error(t, err)
}
