package services

import (
	"crypto/sha256"
	"encoding/binary"
)

// SigningValue derives the 64-bit value bound to a randomness request from
// the raw request payload: the first 8 bytes of the payload's SHA-256
// digest, big-endian. A retried request re-derives it from the retry
// payload, so the oracle sees a fresh value while the correlation id stays
// stable.
func SigningValue(payload []byte) uint64 {
	digest := sha256.Sum256(payload)
	return binary.BigEndian.Uint64(digest[:8])
}
