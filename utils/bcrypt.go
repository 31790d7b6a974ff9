package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypts a user password at the default cost. Stored hashes
// never round-trip back to the API.
func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

// ComparePassword returns a non-nil error when the plaintext does not match
// the stored hash.
func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}
