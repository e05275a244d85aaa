package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewActionToken returns a single-use token for email verification or
// password reset: the raw value mailed to the user and the SHA-256 digest
// stored in the database. Only the digest is ever persisted, so a leaked
// users table cannot be used to complete either flow.
func NewActionToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashActionToken(raw), nil
}

// HashActionToken returns the SHA-256 hex digest of a raw action token,
// matching what NewActionToken stores.
func HashActionToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
