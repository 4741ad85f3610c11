package canon

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAlgorithm is the hash algorithm name recorded in the DCL config lock.
const HashAlgorithm = "sha256"

// Hash returns the lowercase hex SHA-256 digest of v's canonical JSON
// encoding. This is the single hashing primitive used by the activity log,
// the DCL ledger, and checkpoints.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes returns the lowercase hex SHA-256 digest of raw bytes, for
// hashing things that are already canonical (e.g. file contents for the
// proof-bundle exporter).
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
