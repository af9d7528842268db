// Package textkey provides deterministic cache keys for pairs of texts.
package textkey

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	prefix    = "sim:"
	separator = "\x1f"
	hashLen   = 32
)

// PairKey returns a stable key for the unordered pair (a, b).
// PairKey(a, b) == PairKey(b, a) for all inputs.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	hash := sha256.Sum256([]byte(a + separator + b))
	return prefix + hex.EncodeToString(hash[:])[:hashLen]
}
