// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Password rules for admin accounts.
const (
	MinPasswordLength = 10
	// bcrypt ignores input past 72 bytes.
	MaxPasswordLength = 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 10 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordCommon   = errors.New("password is too common")
)

// commonPasswords blocks the long passwords that top breach lists.
var commonPasswords = map[string]bool{
	"1234567890":   true,
	"0123456789":   true,
	"1111111111":   true,
	"qwertyuiop":   true,
	"password12":   true,
	"password123":  true,
	"password1234": true,
	"iloveyou123":  true,
	"adminadmin":   true,
	"admin12345":   true,
	"letmein123":   true,
	"welcome123":   true,
	"changeme123":  true,
	"qwerty12345":  true,
	"stratalaw123": true,
}

// PasswordRules describes the password rules for CLI prompts.
func PasswordRules() string {
	return "At least 10 characters, at most 72 bytes, and not a common password."
}

// ValidatePassword returns nil when password satisfies the rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a validated password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare spends one bcrypt comparison against a throwaway hash so a
// sign-in for an unknown email takes as long as one for a known email.
func BurnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("stratalaw-unused-password"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// NeedsRehash reports whether hash was made with a cost other than BcryptCost.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != BcryptCost
}
