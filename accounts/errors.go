// Package accounts manages database user accounts for the admin console.
package accounts

import (
	"errors"
	"fmt"
	"unicode"
)

// MaxUsernameLength bounds account usernames.
const MaxUsernameLength = 64

// Sentinel errors for account operations.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountLocked      = errors.New("account is locked")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AccountNotFoundErr returns an error identifying the missing account.
func AccountNotFoundErr(username string) error {
	return fmt.Errorf("%w: %s", ErrAccountNotFound, username)
}

// AccountExistsErr returns an error identifying the duplicate account.
func AccountExistsErr(username string) error {
	return fmt.Errorf("%w: %s", ErrAccountExists, username)
}

// ValidateUsername validates an account username: non-empty, bounded length,
// starting with a letter or underscore, containing only letters, digits,
// and underscores.
func ValidateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrInvalidUsername)
	}
	if len(name) > MaxUsernameLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrInvalidUsername, len(name), MaxUsernameLength)
	}
	for i, r := range name {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return fmt.Errorf("%w: must start with letter or underscore", ErrInvalidUsername)
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return fmt.Errorf("%w: '%c' at position %d", ErrInvalidUsername, r, i)
			}
		}
	}
	return nil
}
