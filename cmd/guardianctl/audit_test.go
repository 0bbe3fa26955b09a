package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/blockid/guardian-server/internal/anchor"
	"github.com/blockid/guardian-server/internal/fingerprint"
)

// seedChain writes n entries into a fresh anchor log at dir and returns
// their hashes.
func seedChain(t *testing.T, dir string, n int) []string {
	t.Helper()

	log, err := anchor.Open(dir)
	require.NoError(t, err)
	defer log.Close()

	hashes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		sum, err := fingerprint.Sum([]byte(fmt.Sprintf("payload %d", i)))
		require.NoError(t, err)
		_, err = log.Append(context.Background(), sum)
		require.NoError(t, err)
		hashes = append(hashes, sum)
	}
	return hashes
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestAuditCleanChain(t *testing.T) {
	dir := t.TempDir()
	seedChain(t, dir, 3)

	out, err := runCommand(t, "audit", "--anchors", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "height: 3")
	assert.Contains(t, out, "chain valid")
}

func TestAuditDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	hashes := seedChain(t, dir, 3)

	// Doctor entry 1 in place, the way an attacker with disk access would.
	db, err := leveldb.OpenFile(dir, nil)
	require.NoError(t, err)
	raw, err := db.Get([]byte("entry_1"), nil)
	require.NoError(t, err)
	var entry anchor.Entry
	require.NoError(t, json.Unmarshal(raw, &entry))
	entry.FileHash = strings.Repeat("f", 64)
	doctored, err := json.Marshal(&entry)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("entry_1"), doctored, nil))
	require.NoError(t, db.Close())

	out, err := runCommand(t, "audit", "--anchors", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tamper evidence")
	assert.Contains(t, out, "INVALID")
	// Entry 0 still verifies, so it is not listed without --all.
	assert.NotContains(t, out, hashes[0])
}

func TestAuditAllFlagListsValidEntries(t *testing.T) {
	dir := t.TempDir()
	hashes := seedChain(t, dir, 2)

	out, err := runCommand(t, "audit", "--anchors", dir, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, hashes[0])
	assert.Contains(t, out, hashes[1])
}

func TestHeadCommand(t *testing.T) {
	dir := t.TempDir()
	seedChain(t, dir, 2)

	out, err := runCommand(t, "head", "--anchors", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "height: 2")
	assert.Contains(t, out, "head:")
}

func TestExportEmitsJSONL(t *testing.T) {
	dir := t.TempDir()
	hashes := seedChain(t, dir, 2)

	out, err := runCommand(t, "export", "--anchors", dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		var entry anchor.Entry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, int64(i), entry.SequenceIndex)
		assert.Equal(t, hashes[i], entry.FileHash)
	}
}
