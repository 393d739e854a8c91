package authutil

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "Mahakama-2024!", nil},
		{"exactly min", "abcdefghij", nil},
		{"too short", "short", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"max length", strings.Repeat("a", 72), nil},
		{"common", "password123", ErrPasswordCommon},
		{"common case-insensitive", "PASSWORD123", ErrPasswordCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); err != tt.want {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Mahakama-2024!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword("Mahakama-2024!", hash) {
		t.Error("CheckPassword() should accept the right password")
	}
	if CheckPassword("mahakama-2024!", hash) {
		t.Error("CheckPassword() should reject the wrong password")
	}
	if CheckPassword("anything", "not-a-hash") {
		t.Error("CheckPassword() should reject a malformed hash")
	}
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need rehash")
	}
}

func TestNeedsRehash(t *testing.T) {
	cheap, err := bcrypt.GenerateFromPassword([]byte("Mahakama-2024!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	if !NeedsRehash(string(cheap)) {
		t.Error("low-cost hash should need rehash")
	}
	if !NeedsRehash("garbage") {
		t.Error("malformed hash should need rehash")
	}
}

func TestBurnCompare(t *testing.T) {
	// Must not panic and must be callable repeatedly.
	BurnCompare("x")
	BurnCompare("y")
}
