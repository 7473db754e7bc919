package caching

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeETag returns the strong validator for content: the lowercase hex
// SHA-256 digest of the exact bytes, wrapped in double quotes.
func ComputeETag(content []byte) string {
	sum := sha256.Sum256(content)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
