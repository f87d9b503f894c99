package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/greentrace/users"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims carried by session tokens
type Claims struct {
	Email string `json:"email"`
	jwtlib.RegisteredClaims
}

// Creator issues HS256 session tokens
type Creator struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewCreator creates a new JWT creator. The secret must not be empty.
func NewCreator(secret string, expiry time.Duration, issuer string) (*Creator, error) {
	if secret == "" {
		return nil, errors.New("[jwt NewCreator] secret is required")
	}
	if expiry <= 0 {
		return nil, errors.New("[jwt NewCreator] expiry must be positive")
	}
	return &Creator{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}, nil
}

// CreateSessionToken signs a token for the user and returns it with its claims
func (c *Creator) CreateSessionToken(user *users.User) (string, *Claims, error) {
	now := NowTimeFunc()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(c.expiry)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, claims, nil
}

func (c *Creator) verificationKey(t *jwtlib.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}
