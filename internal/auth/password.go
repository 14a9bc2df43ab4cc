package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/librarydesk/internal/database"
)

// MinPasswordLength applies to passwords chosen by people. The bootstrap
// credential is exempt and flagged for a forced change instead.
const MinPasswordLength = 8

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters", database.ErrValidation, MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("%w: password exceeds maximum length of %d bytes", database.ErrValidation, maxPasswordBytes)
)

// ValidatePassword enforces the policy for user-chosen passwords.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword creates a salted bcrypt hash. It applies no length policy
// beyond bcrypt's own limit; call ValidatePassword first for user input.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash in constant time.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

// GenerateSessionSecret creates a random 32-byte secret for CSRF signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
