package jwt

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	gterrors "github.com/jrsteele09/greentrace/internal/errors"
)

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector validates tokens issued by a Creator
type Inspector struct {
	creator        *Creator
	revokedChecker RevokedChecker
}

// NewInspector creates a new JWT inspector
func NewInspector(creator *Creator, revokedChecker RevokedChecker) *Inspector {
	return &Inspector{
		creator:        creator,
		revokedChecker: revokedChecker,
	}
}

// Validate verifies signature, expiry and revocation and returns the claims
func (i *Inspector) Validate(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, gterrors.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, i.creator.verificationKey,
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if gterrors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, gterrors.ErrTokenExpired
		}
		return nil, gterrors.Wrapf(gterrors.ErrInvalidToken, "%v", err)
	}
	if !token.Valid {
		return nil, gterrors.ErrInvalidToken
	}

	if claims.ID != "" && i.revokedChecker != nil && i.revokedChecker.IsRevoked(claims.ID) {
		return nil, gterrors.ErrTokenRevoked
	}
	return claims, nil
}

// ExpiresAt reads the exp claim without verifying the signature. ok is false when the
// token is not a JWT or carries no exp, in which case only the API can judge it.
func ExpiresAt(rawToken string) (exp time.Time, ok bool) {
	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// IsExpired reports whether an unverified token has an exp in the past
func IsExpired(rawToken string, now time.Time) bool {
	exp, ok := ExpiresAt(rawToken)
	return ok && !now.Before(exp)
}

// ExpiryOf returns the verified expiry for revocation bookkeeping
func ExpiryOf(claims *Claims) (time.Time, error) {
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token missing exp claim")
	}
	return claims.ExpiresAt.Time, nil
}
