// Package fingerprint computes the content digests used to identify media.
// A fingerprint is the lowercase hex SHA-256 of the raw upload bytes, the
// same value the dashboard displays and the anchor log commits to.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
)

// HexLength is the length of an encoded fingerprint.
const HexLength = sha256.Size * 2

// ErrEmptyInput is returned when there are no bytes to fingerprint.
var ErrEmptyInput = errors.New("empty input")

// ErrInvalidHash is returned when a value is not a well-formed fingerprint.
var ErrInvalidHash = errors.New("malformed fingerprint")

// Sum returns the fingerprint of data. Identical bytes always produce the
// identical fingerprint; empty input is rejected by policy.
func Sum(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SumReader streams r through the digest and returns the fingerprint and
// the number of bytes consumed.
func SumReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	if n == 0 {
		return "", 0, ErrEmptyInput
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Short abbreviates a fingerprint for log lines and synthetic identifiers.
func Short(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12]
}

// Valid reports whether s is a syntactically well-formed fingerprint:
// exactly 64 lowercase hex characters.
func Valid(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
