package anchor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/blockid/guardian-server/internal/fingerprint"
)

// LevelDB key layout:
//   entry_<seq>  -> Entry JSON
//   fp_<hash>    -> decimal sequence index
//   meta_height  -> decimal sequence index of the head entry
const metaHeightKey = "meta_height"

func entryKey(seq int64) []byte {
	return []byte(fmt.Sprintf("entry_%d", seq))
}

func fpKey(hash string) []byte {
	return []byte("fp_" + hash)
}

// Log is the anchor chain. Appends are serialized by a single writer lock;
// reads observe a consistent snapshot under the read lock.
type Log struct {
	db *leveldb.DB

	mu         sync.RWMutex
	height     int64  // number of committed entries
	headDigest string // EntryDigest of the head, GenesisDigest when empty
}

// Open opens (or creates) an anchor log stored at path.
func Open(path string) (*Log, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open anchor db: %w", err)
	}
	return load(db)
}

// OpenMemory opens an anchor log backed by in-memory storage. Used in tests
// and by ephemeral deployments.
func OpenMemory() (*Log, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open anchor memdb: %w", err)
	}
	return load(db)
}

func load(db *leveldb.DB) (*Log, error) {
	l := &Log{db: db, headDigest: GenesisDigest}

	raw, err := db.Get([]byte(metaHeightKey), nil)
	if err == leveldb.ErrNotFound {
		return l, nil
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read chain height: %w", err)
	}

	head, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("parse chain height %q: %w", raw, err)
	}
	entry, err := l.getByIndex(head)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load head entry %d: %w", head, err)
	}

	l.height = head + 1
	l.headDigest = entry.EntryDigest
	return l, nil
}

// Close releases the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append commits fileHash as the next chain entry.
func (l *Log) Append(ctx context.Context, fileHash string) (*Entry, error) {
	return l.AppendWith(ctx, fileHash, nil)
}

// AppendWith commits fileHash as the next chain entry and, while still
// holding the writer lock, runs commit with the new entry. If commit returns
// an error the entry is unwound and the chain is left as if the append never
// happened. This is how ingestion keeps the anchor entry and the media
// record all-or-nothing.
func (l *Log) AppendWith(ctx context.Context, fileHash string, commit func(*Entry) error) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fingerprint.Valid(fileHash) {
		return nil, ErrInvalidHash
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.db.Get(fpKey(fileHash), nil); err == nil {
		return nil, ErrAlreadyAnchored
	} else if err != leveldb.ErrNotFound {
		return nil, fmt.Errorf("probe fingerprint index: %w", err)
	}

	entry := &Entry{
		SequenceIndex: l.height,
		FileHash:      fileHash,
		PrevDigest:    l.headDigest,
		AnchoredAt:    time.Now().UTC(),
	}
	entry.EntryDigest = entry.computeDigest()

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}

	seq := []byte(strconv.FormatInt(entry.SequenceIndex, 10))
	batch := new(leveldb.Batch)
	batch.Put(entryKey(entry.SequenceIndex), data)
	batch.Put(fpKey(fileHash), seq)
	batch.Put([]byte(metaHeightKey), seq)
	if err := l.db.Write(batch, nil); err != nil {
		return nil, fmt.Errorf("write entry: %w", err)
	}

	if commit != nil {
		if err := commit(entry); err != nil {
			undo := new(leveldb.Batch)
			undo.Delete(entryKey(entry.SequenceIndex))
			undo.Delete(fpKey(fileHash))
			if entry.SequenceIndex == 0 {
				undo.Delete([]byte(metaHeightKey))
			} else {
				undo.Put([]byte(metaHeightKey), []byte(strconv.FormatInt(entry.SequenceIndex-1, 10)))
			}
			_ = l.db.Write(undo, nil)
			return nil, err
		}
	}

	l.height = entry.SequenceIndex + 1
	l.headDigest = entry.EntryDigest
	return entry, nil
}

// Get returns the entry anchoring fileHash without validating the chain.
func (l *Log) Get(ctx context.Context, fileHash string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, err := l.getByHash(fileHash)
	if err != nil {
		return nil, err
	}
	if entry.FileHash != fileHash {
		return nil, ErrNotFound
	}
	return entry, nil
}

// GetByIndex returns the entry at a chain position.
func (l *Log) GetByIndex(ctx context.Context, seq int64) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq < 0 || seq >= l.height {
		return nil, ErrNotFound
	}
	return l.getByIndex(seq)
}

// VerifyChain locates the entry for fileHash and recomputes every digest
// from that entry back to genesis. A mismatch anywhere on the walk returns
// a CorruptionError; an absent fingerprint returns ErrNotFound. The two are
// never conflated.
func (l *Log) VerifyChain(ctx context.Context, fileHash string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, err := l.getByHash(fileHash)
	if err != nil {
		return nil, err
	}

	cur := entry
	for {
		if got := cur.computeDigest(); got != cur.EntryDigest {
			return nil, &CorruptionError{
				SequenceIndex: cur.SequenceIndex,
				Detail:        fmt.Sprintf("entry digest mismatch (stored %s, recomputed %s)", short(cur.EntryDigest), short(got)),
			}
		}
		if cur.SequenceIndex == 0 {
			if cur.PrevDigest != GenesisDigest {
				return nil, &CorruptionError{SequenceIndex: 0, Detail: "genesis entry does not use the genesis sentinel"}
			}
			break
		}

		prev, err := l.getByIndex(cur.SequenceIndex - 1)
		if err != nil {
			return nil, &CorruptionError{
				SequenceIndex: cur.SequenceIndex - 1,
				Detail:        fmt.Sprintf("missing entry: %v", err),
			}
		}
		if cur.PrevDigest != prev.EntryDigest {
			return nil, &CorruptionError{
				SequenceIndex: cur.SequenceIndex,
				Detail:        fmt.Sprintf("broken link to entry %d (prev_digest %s, predecessor %s)", prev.SequenceIndex, short(cur.PrevDigest), short(prev.EntryDigest)),
			}
		}
		cur = prev
	}

	// Digests held up but the slot belongs to another hash: a stale pointer
	// left by a failed unwind, not tampering.
	if entry.FileHash != fileHash {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Head returns the digest of the newest entry and the number of committed
// entries. An empty chain reports the genesis sentinel and zero.
func (l *Log) Head() (string, int64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.headDigest, l.height
}

// AuditEntry is the per-position outcome of a full chain audit.
type AuditEntry struct {
	SequenceIndex int64  `json:"sequence_index"`
	FileHash      string `json:"file_hash"`
	EntryDigest   string `json:"entry_digest"`
	Valid         bool   `json:"valid"`
	Detail        string `json:"detail,omitempty"`
}

// AuditReport summarizes a forward walk over the whole chain.
type AuditReport struct {
	Height  int64        `json:"height"`
	Head    string       `json:"head"`
	Valid   bool         `json:"valid"`
	Entries []AuditEntry `json:"entries"`
}

// Audit recomputes every digest in the chain, genesis first, and reports
// each entry's validity. Once an entry fails, every later entry is reported
// invalid as well: their digests commit to the damaged prefix.
func (l *Log) Audit(ctx context.Context) (*AuditReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	report := &AuditReport{Height: l.height, Head: l.headDigest, Valid: true}
	prevDigest := GenesisDigest
	tainted := false

	for seq := int64(0); seq < l.height; seq++ {
		entry, err := l.getByIndex(seq)
		if err != nil {
			report.Valid = false
			report.Entries = append(report.Entries, AuditEntry{
				SequenceIndex: seq,
				Valid:         false,
				Detail:        fmt.Sprintf("missing entry: %v", err),
			})
			tainted = true
			continue
		}

		ae := AuditEntry{SequenceIndex: seq, FileHash: entry.FileHash, EntryDigest: entry.EntryDigest, Valid: true}
		switch {
		case tainted:
			ae.Valid = false
			ae.Detail = "follows a corrupted entry"
		case entry.PrevDigest != prevDigest:
			ae.Valid = false
			ae.Detail = fmt.Sprintf("broken link (prev_digest %s, predecessor %s)", short(entry.PrevDigest), short(prevDigest))
		case entry.computeDigest() != entry.EntryDigest:
			ae.Valid = false
			ae.Detail = "entry digest mismatch"
		}
		if !ae.Valid {
			report.Valid = false
			tainted = true
		}

		prevDigest = entry.EntryDigest
		report.Entries = append(report.Entries, ae)
	}
	return report, nil
}

func (l *Log) getByHash(fileHash string) (*Entry, error) {
	raw, err := l.db.Get(fpKey(fileHash), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read fingerprint index: %w", err)
	}
	seq, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse fingerprint index %q: %w", raw, err)
	}
	return l.getByIndex(seq)
}

func (l *Log) getByIndex(seq int64) (*Entry, error) {
	raw, err := l.db.Get(entryKey(seq), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read entry %d: %w", seq, err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", seq, err)
	}
	return &entry, nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
