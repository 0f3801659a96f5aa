package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session service
var (
	// Credential errors. ErrUnauthorized covers unknown principals, wrong
	// passwords, PIN mismatches and stale refresh tokens so that callers
	// cannot distinguish between them.
	ErrUnauthorized = errors.New("unauthorized")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// PIN errors
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
