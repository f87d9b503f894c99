package errors

import (
	"errors"
	"fmt"
)

// Failure categories surfaced by the session layer
var (
	// ErrValidation is a local input failure that never reaches the network
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized covers bad credentials and invalid or expired tokens
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetwork is a transport failure where no usable response arrived
	ErrNetwork = errors.New("network failure")
	// ErrServer is a non-2xx response carrying a message payload
	ErrServer = errors.New("server failure")
)

// Session and store errors
var (
	ErrNoSession     = errors.New("no session")
	ErrStoreNotFound = errors.New("store key not found")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrInvalidToken  = errors.New("invalid token")
)

// Reference API errors
var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrNotFound     = errors.New("not found")
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
