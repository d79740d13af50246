package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a fixed-length hex digest of v, suitable for embedding
// caller-controlled strings such as usernames in storage keys.
func HashKey(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
