package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrsteele09/greentrace/users"
)

// LoadCredentials reads the persisted token and user. ok is false unless both are present.
func LoadCredentials(ctx context.Context, store Store) (token string, user *users.User, ok bool, err error) {
	token, hasToken, err := store.Get(ctx, KeyToken)
	if err != nil {
		return "", nil, false, err
	}
	rawUser, hasUser, err := store.Get(ctx, KeyUser)
	if err != nil {
		return "", nil, false, err
	}
	if !hasToken || !hasUser || token == "" || rawUser == "" {
		return "", nil, false, nil
	}

	user = &users.User{}
	if err := json.Unmarshal([]byte(rawUser), user); err != nil {
		return "", nil, false, fmt.Errorf("[sessions LoadCredentials] stored user: %w", err)
	}
	return token, user, true, nil
}

// SaveCredentials persists the token and the serialized user
func SaveCredentials(ctx context.Context, store Store, token string, user *users.User) error {
	if err := store.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	return SaveUser(ctx, store, user)
}

func SaveUser(ctx context.Context, store Store, user *users.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("[sessions SaveUser] %w", err)
	}
	return store.Set(ctx, KeyUser, string(b))
}

// ClearCredentials removes both keys, attempting the second even if the first fails
func ClearCredentials(ctx context.Context, store Store) error {
	return errors.Join(
		store.Remove(ctx, KeyToken),
		store.Remove(ctx, KeyUser),
	)
}
