package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashAdminKey hashes an admin key for the ADMIN_KEY_HASH setting
func HashAdminKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin key: %w", err)
	}
	return string(bytes), nil
}

// CheckAdminKey checks a presented key against the configured bcrypt hash.
// An empty hash never matches.
func CheckAdminKey(key, hash string) bool {
	if hash == "" || key == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}
