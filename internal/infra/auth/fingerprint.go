package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the SHA-256 digest of a raw token string, hex encoded.
// The result is always 64 lowercase hex characters and is what gets persisted
// in the whitelist ledger; raw tokens never touch storage.
func (s *jwtService) Fingerprint(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))

	return hex.EncodeToString(sum[:])
}
