package principals

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Principal is an authenticated identity. Each principal owns at most one
// active refresh session and at most one PIN record; both are keyed by ID.
type Principal struct {
	ID           int64     `json:"id,omitempty"`          // Unique identifier for the principal
	Username     string    `json:"username,omitempty"`    // Unique username
	Email        string    `json:"email,omitempty"`       // Unique email address
	PasswordHash string    `json:"-"`                     // Hashed password - never serialize
	FirstName    string    `json:"first_name,omitempty"`  // First name
	LastName     string    `json:"last_name,omitempty"`   // Last name
	DateJoined   time.Time `json:"date_joined,omitempty"` // When the principal registered
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last successful sign-in
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, bcrypt.DefaultCost)
}

// HashPasswordWithCost hashes with an explicit bcrypt cost factor. Costs
// below bcrypt.DefaultCost are raised to it; the stored password hash must
// stay expensive to brute-force.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
