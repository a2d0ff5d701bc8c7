package users

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Account passwords use the expensive tier. Action tokens are high-entropy
// random bytes rather than guessable secrets, so they get a cheaper cost.
const (
	passwordHashCost = 12
	tokenHashCost    = 8
)

// tokenBytes is the entropy of a raw action token: 16 bytes, rendered as a
// 32 character hex string.
const tokenBytes = 16

// HashPassword generates a bcrypt hash for an account password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(h), err
}

// HashToken generates a bcrypt hash for a raw action token.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(token), tokenHashCost)
	return string(h), err
}

// ComparePasswordAndHash validates the given cleartext password against the
// stored hash. A mismatch returns ErrMismatchedHashAndPassword; any other
// error means the stored hash is malformed.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// CompareTokenAndHash validates a raw action token against its stored hash.
// bcrypt comparison is cost-agnostic, so this shares the password path.
func CompareTokenAndHash(token, hash string) error {
	return ComparePasswordAndHash(token, hash)
}

// GenerateToken produces a new raw action token from the CSPRNG.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", ErrTokenGeneration
	}
	return hex.EncodeToString(buf), nil
}
