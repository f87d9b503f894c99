// Package authapi is an in-memory implementation of the GreenTrace auth API,
// used for local development and as a test fixture.
package authapi

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/token"
	"github.com/jrsteele09/greentrace/token/jwt"
	"github.com/jrsteele09/greentrace/users"
)

const (
	ResetTokenTTL   = 24 * time.Hour
	passwordMinLen  = 8
	emailMaxLen     = 100
	passwordSpecial = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps request fields to validation messages
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return fmt.Sprintf("%d invalid fields", len(fe))
}

// RequestError is a client error whose message is returned to the caller as is
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type resetGrant struct {
	userID users.ID
	expiry time.Time
}

// Service holds the account logic behind the HTTP handlers
type Service struct {
	users     users.UserRepo
	creator   *jwt.Creator
	inspector *jwt.Inspector
	denylist  token.Denylist
	now       func() time.Time

	mu     sync.Mutex
	resets map[string]resetGrant
}

func NewService(userRepo users.UserRepo, creator *jwt.Creator, denylist token.Denylist) (*Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("[authapi NewService] user repo is required")
	}
	if creator == nil {
		return nil, fmt.Errorf("[authapi NewService] token creator is required")
	}
	if denylist == nil {
		denylist = token.NewMemoryDenylist()
	}
	return &Service{
		users:     userRepo,
		creator:   creator,
		inspector: jwt.NewInspector(creator, denylist),
		denylist:  denylist,
		now:       time.Now,
		resets:    make(map[string]resetGrant),
	}, nil
}

// SignUp validates and stores a new account
func (s *Service) SignUp(req SignupRequest) (*users.User, error) {
	if errs := validateSignup(req); len(errs) > 0 {
		return nil, errs
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, gterrors.Wrapf(err, "[Service.SignUp] HashPassword")
	}
	user := &users.User{
		Email:        users.NormalizeEmail(req.Email),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		DateJoined:   s.now(),
	}
	if err := s.users.Create(user); err != nil {
		if gterrors.Is(err, gterrors.ErrUserExists) {
			return nil, err
		}
		return nil, gterrors.Wrapf(err, "[Service.SignUp] Create")
	}
	log.Info().Str("email", user.Email).Msg("new user registered")
	return user, nil
}

// Login checks credentials and records the login time
func (s *Service) Login(email, password string) (*users.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, gterrors.ErrUnauthorized
	}
	if user.Blocked {
		return nil, gterrors.Wrapf(gterrors.ErrUnauthorized, "account is deactivated")
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, gterrors.ErrUnauthorized
	}

	user.LastLogin = &users.Timestamp{Time: s.now()}
	if err := s.users.Upsert(user); err != nil {
		return nil, gterrors.Wrapf(err, "[Service.Login] Upsert")
	}
	return user, nil
}

// IssueToken signs a session token for user
func (s *Service) IssueToken(user *users.User) (string, error) {
	raw, _, err := s.creator.CreateSessionToken(user)
	if err != nil {
		return "", gterrors.Wrapf(err, "[Service.IssueToken]")
	}
	return raw, nil
}

// Authenticate resolves a bearer token to its user
func (s *Service) Authenticate(raw string) (*users.User, error) {
	claims, err := s.inspector.Validate(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(users.ID(claims.Subject))
	if err != nil {
		return nil, gterrors.Wrapf(gterrors.ErrInvalidToken, "unknown subject: %v", err)
	}
	if user.Blocked {
		return nil, gterrors.Wrapf(gterrors.ErrInvalidToken, "account is deactivated")
	}
	return user, nil
}

// Revoke invalidates raw until its natural expiry. Invalid tokens are ignored.
func (s *Service) Revoke(raw string) {
	claims, err := s.inspector.Validate(raw)
	if err != nil {
		return
	}
	exp, err := jwt.ExpiryOf(claims)
	if err != nil {
		return
	}
	if err := s.denylist.Deny(claims.ID, exp); err != nil {
		log.Err(err).Msg("failed to revoke token")
	}
}

// CreateResetToken issues a single use password reset token for email
func (s *Service) CreateResetToken(email string) (string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", err
	}
	resetToken := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[resetToken] = resetGrant{userID: user.ID, expiry: s.now().Add(ResetTokenTTL)}
	return resetToken, nil
}

// ResetPassword consumes resetToken and replaces the user's password
func (s *Service) ResetPassword(resetToken, newPassword string) error {
	s.mu.Lock()
	grant, ok := s.resets[resetToken]
	s.mu.Unlock()
	if !ok {
		return &RequestError{Message: "Invalid reset token"}
	}
	if !s.now().Before(grant.expiry) {
		s.forgetReset(resetToken)
		return &RequestError{Message: "Reset token has expired"}
	}
	if msg := passwordProblem(newPassword); msg != "" {
		return &RequestError{Message: msg}
	}

	user, err := s.users.GetByID(grant.userID)
	if err != nil {
		return &RequestError{Message: "Invalid reset token"}
	}
	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return gterrors.Wrapf(err, "[Service.ResetPassword] HashPassword")
	}
	user.PasswordHash = hash
	if err := s.users.Upsert(user); err != nil {
		return gterrors.Wrapf(err, "[Service.ResetPassword] Upsert")
	}
	s.forgetReset(resetToken)
	return nil
}

func (s *Service) forgetReset(resetToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resets, resetToken)
}

// Cleanup drops expired reset grants and revocations
func (s *Service) Cleanup() {
	now := s.now()
	s.mu.Lock()
	for t, grant := range s.resets {
		if !now.Before(grant.expiry) {
			delete(s.resets, t)
		}
	}
	s.mu.Unlock()
	if pruned := s.denylist.Prune(); pruned > 0 {
		log.Debug().Int("pruned", pruned).Msg("dropped lapsed token revocations")
	}
}

// RunCleanup calls Cleanup every interval until ctx is done
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

func validateSignup(req SignupRequest) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(req.FirstName) == "" {
		errs["firstName"] = "First name is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		errs["lastName"] = "Last name is required"
	}
	switch email := strings.TrimSpace(req.Email); {
	case email == "":
		errs["email"] = "Email is required"
	case len(email) > emailMaxLen:
		errs["email"] = "Email must not exceed 100 characters"
	case !emailPattern.MatchString(email):
		errs["email"] = "Please enter a valid email address"
	}
	if strings.TrimSpace(req.Password) == "" {
		errs["password"] = "Password is required"
	} else if msg := passwordProblem(req.Password); msg != "" {
		errs["password"] = msg
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		errs["confirmPassword"] = "Passwords do not match"
	}
	return errs
}

func passwordProblem(p string) string {
	switch {
	case len(p) < passwordMinLen:
		return "Password must be at least 8 characters long"
	case !strings.ContainsAny(p, "abcdefghijklmnopqrstuvwxyz"):
		return "Password must contain at least one lowercase letter"
	case !strings.ContainsAny(p, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"):
		return "Password must contain at least one uppercase letter"
	case !strings.ContainsAny(p, "0123456789"):
		return "Password must contain at least one number"
	case !strings.ContainsAny(p, passwordSpecial):
		return "Password must contain at least one special character"
	}
	return ""
}
