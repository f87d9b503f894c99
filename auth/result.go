package auth

import (
	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/users"
)

// FailureKind classifies an unsuccessful Result
type FailureKind int

const (
	NoFailure FailureKind = iota
	ValidationFailure
	Unauthorized
	NetworkFailure
	ServerFailure
)

func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case ValidationFailure:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NetworkFailure:
		return "network"
	case ServerFailure:
		return "server"
	default:
		return "unknown"
	}
}

// Result is what every session operation returns in place of an error
type Result struct {
	Success bool
	Message string
	User    *users.User
	Errors  map[string]string
	Kind    FailureKind
	// Data carries the API body verbatim for the password reset operations
	Data map[string]any
}

// Err maps a failed Result onto the shared sentinel errors
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	var sentinel error
	switch r.Kind {
	case ValidationFailure:
		sentinel = gterrors.ErrValidation
	case Unauthorized:
		sentinel = gterrors.ErrUnauthorized
	case NetworkFailure:
		sentinel = gterrors.ErrNetwork
	default:
		sentinel = gterrors.ErrServer
	}
	if r.Message == "" {
		return sentinel
	}
	return gterrors.Wrapf(sentinel, "%s", r.Message)
}

// State is a point in time snapshot of the session
type State struct {
	Token           string
	User            *users.User
	IsAuthenticated bool
	IsLoading       bool
}

func networkFailure() Result {
	return Result{Message: MsgNetworkError, Kind: NetworkFailure}
}

func validationFailure(errs map[string]string) Result {
	return Result{Message: MsgFixFields, Errors: errs, Kind: ValidationFailure}
}

// passthroughResult mirrors success and message from a verbatim API body
func passthroughResult(body map[string]any) Result {
	r := Result{Data: body}
	r.Success, _ = body["success"].(bool)
	r.Message, _ = body["message"].(string)
	if !r.Success {
		r.Kind = ServerFailure
	}
	return r
}
