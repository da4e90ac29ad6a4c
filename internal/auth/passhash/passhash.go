// Package passhash hashes and verifies user passwords with bcrypt.
//
// Passwords are reduced to a fixed-length SHA-256 digest before bcrypt sees
// them, so credentials longer than bcrypt's 72-byte input limit are accepted
// and every byte of them counts.
package passhash

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used outside tests.
const DefaultCost = bcrypt.DefaultCost

// prehash returns the base64 SHA-256 digest of password (44 bytes).
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// Hash returns the bcrypt hash of password at the given cost.
func Hash(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash.
func Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}
