package fingerprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumDeterministic(t *testing.T) {
	a, err := Sum([]byte("same content"))
	require.NoError(t, err)
	b, err := Sum([]byte("same content"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, HexLength)
}

func TestSumDistinctInputs(t *testing.T) {
	a, err := Sum([]byte("content one"))
	require.NoError(t, err)
	b, err := Sum([]byte("content two"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSumKnownVector(t *testing.T) {
	// sha256("abc") from FIPS 180-2.
	got, err := Sum([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
}

func TestSumRejectsEmpty(t *testing.T) {
	_, err := Sum(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = Sum([]byte{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSumReaderMatchesSum(t *testing.T) {
	payload := bytes.Repeat([]byte("media bytes "), 4096)
	want, err := Sum(payload)
	require.NoError(t, err)

	got, n, err := SumReader(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(len(payload)), n)
}

func TestSumReaderRejectsEmpty(t *testing.T) {
	_, _, err := SumReader(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestShort(t *testing.T) {
	h, err := Sum([]byte("abbreviate me"))
	require.NoError(t, err)
	assert.Equal(t, h[:12], Short(h))
	assert.Equal(t, "tiny", Short("tiny"))
}

func TestValid(t *testing.T) {
	good, err := Sum([]byte("anything"))
	require.NoError(t, err)
	assert.True(t, Valid(good))

	assert.False(t, Valid(""))
	assert.False(t, Valid("not-a-real-hash"))
	assert.False(t, Valid(good[:HexLength-1]))
	assert.False(t, Valid(good+"0"))
	assert.False(t, Valid(strings.ToUpper(good)))
	assert.False(t, Valid(strings.Repeat("g", HexLength)))
	assert.True(t, Valid(strings.Repeat("0", HexLength)))
}
