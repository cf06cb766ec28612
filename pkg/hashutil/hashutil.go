package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// HashBytes returns the hex digest of data using algo.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// StableID derives a deterministic identifier from parts.
// Parts are joined with a NUL separator so ("ab", "c") and ("a", "bc") differ.
// The result is the first 32 hex characters of the BLAKE3 digest.
func StableID(parts ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:16])
}

// ShortHash returns the first n hex characters of the BLAKE3 digest of data.
// n is clamped to [1, 64].
func ShortHash(data []byte, n int) string {
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])[:n]
}
