// Package pin implements the secondary-factor PIN state machine. A record
// is UNLOCKED or LOCKED; wrong attempts accumulate and lock the record at
// the threshold, and nothing in this package ever unlocks it again.
package pin

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultMaxAttempts = 3
	DefaultPINLength   = 6
)

// Record is a principal's PIN state. One record per principal, created once
// at setup and mutated on every verification attempt.
type Record struct {
	PrincipalID    int64  // Owner, one-to-one
	HashedPIN      string // bcrypt digest of the PIN
	FailedAttempts int    // 0..MaxAttempts
	IsLocked       bool   // true exactly once FailedAttempts reaches MaxAttempts
	MaxAttempts    int    // Lockout threshold
	PINLength      int    // Expected PIN digit count
}

// ValidatePIN checks that candidate is exactly length decimal digits.
func ValidatePIN(candidate string, length int) error {
	if len(candidate) != length {
		return fmt.Errorf("pin must be exactly %d digits", length)
	}
	for _, char := range candidate {
		if !unicode.IsDigit(char) {
			return fmt.Errorf("pin must contain only digits")
		}
	}
	return nil
}

func HashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPINHash(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}
