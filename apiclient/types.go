package apiclient

import (
	"fmt"
	"net/http"

	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/users"
)

// AuthResponse is the body returned by the login, signup and verify endpoints
type AuthResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	User    *users.User       `json:"user,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// SignupRequest is the registration payload
type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// APIError is a decoded non-success response from the auth API
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string]string
	kind       error
}

// NewAPIError classifies a failed response by status: 401 and 403 are
// unauthorized, everything else is a server failure.
func NewAPIError(status int, message string, fieldErrors map[string]string) *APIError {
	kind := gterrors.ErrServer
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = gterrors.ErrUnauthorized
	}
	return &APIError{StatusCode: status, Message: message, Errors: fieldErrors, kind: kind}
}

func newAPIError(status int, body *AuthResponse) *APIError {
	if body == nil {
		return NewAPIError(status, "", nil)
	}
	return NewAPIError(status, body.Message, body.Errors)
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d: %v", e.StatusCode, e.kind)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func (e *APIError) asUnauthorized() *APIError {
	e.kind = gterrors.ErrUnauthorized
	return e
}
