package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for all password digests. Changing it
// only affects newly hashed passwords; existing digests keep their cost.
const BcryptCost = 10

// HashPassword returns the bcrypt digest of a plaintext password. The
// plaintext is never stored or logged anywhere.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether plaintext matches the stored digest.
// Comparison is delegated to bcrypt, which is constant-time on the digest.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
