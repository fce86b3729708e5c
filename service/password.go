package service

import (
	"go-clinic-auth/logger"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a salted bcrypt hash; two calls on the same input
// produce different outputs.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), err
}

// CheckPasswordHash compares in constant time. A malformed hash reports
// "no match" instead of an error so callers treat every failure uniformly.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
