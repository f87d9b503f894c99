// Package sessions persists the client session (bearer token and user record)
// between process runs.
package sessions

import "context"

// Persisted keys
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is a persisted key-value store. Get reports ok=false for a missing key.
// Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
