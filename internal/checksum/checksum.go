// Package checksum fingerprints uploaded document files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumReader returns the hex-encoded SHA-256 digest of everything read
// from r.
func SumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
