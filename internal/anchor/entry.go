// Package anchor implements the append-only, tamper-evident log that media
// fingerprints are committed to. Each entry's digest covers the previous
// entry's digest, so altering any historical entry invalidates every digest
// after it. Entries are persisted in LevelDB; "blockchain" elsewhere in the
// API refers to this chain.
package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GenesisDigest is the prev_digest sentinel of the first entry.
var GenesisDigest = strings.Repeat("0", 64)

// Entry is one committed position in the anchor chain. All fields are
// immutable once the entry is written.
type Entry struct {
	SequenceIndex int64     `json:"sequence_index"`
	FileHash      string    `json:"file_hash"`
	PrevDigest    string    `json:"prev_digest"`
	EntryDigest   string    `json:"entry_digest"`
	AnchoredAt    time.Time `json:"anchored_at"`
}

// computeDigest hashes the canonical encoding of the entry header.
// The timestamp is fixed to RFC3339Nano UTC so the encoding survives a
// JSON round trip through storage.
func (e *Entry) computeDigest() string {
	hdr := struct {
		SequenceIndex int64  `json:"sequence_index"`
		FileHash      string `json:"file_hash"`
		PrevDigest    string `json:"prev_digest"`
		AnchoredAt    string `json:"anchored_at"`
	}{
		SequenceIndex: e.SequenceIndex,
		FileHash:      e.FileHash,
		PrevDigest:    e.PrevDigest,
		AnchoredAt:    e.AnchoredAt.UTC().Format(time.RFC3339Nano),
	}
	data, _ := json.Marshal(hdr)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ErrNotFound is returned when a fingerprint has no entry in the chain.
var ErrNotFound = errors.New("hash not anchored")

// ErrAlreadyAnchored is returned when appending a fingerprint that already
// has an entry. The chain is a set over content, not over upload events.
var ErrAlreadyAnchored = errors.New("hash already anchored")

// ErrInvalidHash is returned for fingerprints that are not well-formed.
var ErrInvalidHash = errors.New("malformed fingerprint")

// ErrCorrupted is the sentinel matched by errors.Is for any chain
// integrity violation.
var ErrCorrupted = errors.New("anchor chain corrupted")

// CorruptionError reports a digest mismatch at a specific chain position.
// It matches ErrCorrupted under errors.Is.
type CorruptionError struct {
	SequenceIndex int64
	Detail        string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("anchor chain corrupted at entry %d: %s", e.SequenceIndex, e.Detail)
}

// Is lets errors.Is(err, ErrCorrupted) match wrapped corruption reports.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupted
}
