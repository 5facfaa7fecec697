package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex SHA-256 digest of s. The digest is unsalted,
// so it only stays compatible with hashes already stored by earlier
// deployments; it is not a password-hardening function.
func HashPassword(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CheckPassword reports whether candidate hashes to hash, in constant time.
func CheckPassword(hash, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HashPassword(candidate))) == 1
}
