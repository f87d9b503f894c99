package authapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/users"
)

// Route patterns served under the /api prefix
const (
	SignupRoute         = "POST /api/auth/signup"
	LoginRoute          = "POST /api/auth/login"
	LogoutRoute         = "POST /api/auth/logout"
	ForgotPasswordRoute = "POST /api/auth/forgot-password"
	ResetPasswordRoute  = "POST /api/auth/reset-password"
	VerifyRoute         = "GET /api/auth/verify"
)

const maxRequestBytes = 64 << 10

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

// Handler returns the API routes
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SignupRoute, s.SignupHandler())
	mux.HandleFunc(LoginRoute, s.LoginHandler())
	mux.HandleFunc(LogoutRoute, s.LogoutHandler())
	mux.HandleFunc(ForgotPasswordRoute, s.ForgotPasswordHandler())
	mux.HandleFunc(ResetPasswordRoute, s.ResetPasswordHandler())
	mux.HandleFunc(VerifyRoute, s.VerifyHandler())
	return mux
}

func (s *Service) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if !decodeBody(w, r, &req) {
			return
		}

		user, err := s.SignUp(req)
		if err != nil {
			var fieldErrs FieldErrors
			switch {
			case gterrors.As(err, &fieldErrs):
				validationFailed(w, fieldErrs)
			case gterrors.Is(err, gterrors.ErrUserExists):
				failure(w, http.StatusConflict, fmt.Sprintf("User with email %s already exists.", users.NormalizeEmail(req.Email)))
			default:
				log.Err(err).Msg("signup failed")
				failure(w, http.StatusInternalServerError, "An error occurred while creating your account. Please try again.")
			}
			return
		}

		s.respondWithToken(w, http.StatusCreated, user, "Account created successfully! Welcome to GreenTrace.")
	}
}

func (s *Service) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		errs := FieldErrors{}
		switch email := strings.TrimSpace(req.Email); {
		case email == "":
			errs["email"] = "Email is required"
		case !emailPattern.MatchString(email):
			errs["email"] = "Please enter a valid email address"
		}
		if req.Password == "" {
			errs["password"] = "Password is required"
		}
		if len(errs) > 0 {
			validationFailed(w, errs)
			return
		}

		user, err := s.Login(req.Email, req.Password)
		if err != nil {
			if gterrors.Is(err, gterrors.ErrUnauthorized) {
				failure(w, http.StatusUnauthorized, "Invalid email or password. Please check your credentials and try again.")
				return
			}
			log.Err(err).Msg("login failed")
			failure(w, http.StatusInternalServerError, "An error occurred during login. Please try again.")
			return
		}

		s.respondWithToken(w, http.StatusOK, user, "Welcome back! Login successful.")
	}
}

// LogoutHandler revokes the presented token when it is valid and always succeeds
func (s *Service) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := bearerToken(r); raw != "" {
			s.Revoke(raw)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Logged out successfully. Thank you for using GreenTrace!",
		})
	}
}

func (s *Service) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req forgotPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			failure(w, http.StatusBadRequest, "Email is required")
			return
		}

		resetToken, err := s.CreateResetToken(req.Email)
		if err != nil {
			if gterrors.Is(err, gterrors.ErrUserNotFound) {
				failure(w, http.StatusNotFound, "No account found with that email address.")
				return
			}
			log.Err(err).Msg("forgot password failed")
			failure(w, http.StatusInternalServerError, "An error occurred while processing your request.")
			return
		}

		// The token is returned directly since there is no mail delivery in development
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "Password reset instructions sent to your email.",
			"resetToken": resetToken,
		})
	}
}

func (s *Service) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Token) == "" {
			failure(w, http.StatusBadRequest, "Reset token is required")
			return
		}
		if strings.TrimSpace(req.NewPassword) == "" {
			failure(w, http.StatusBadRequest, "New password is required")
			return
		}

		if err := s.ResetPassword(req.Token, req.NewPassword); err != nil {
			var reqErr *RequestError
			if gterrors.As(err, &reqErr) {
				failure(w, http.StatusBadRequest, reqErr.Message)
				return
			}
			log.Err(err).Msg("reset password failed")
			failure(w, http.StatusInternalServerError, "An error occurred while resetting your password.")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Password reset successfully. You can now login with your new password.",
		})
	}
}

func (s *Service) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			failure(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		user, err := s.Authenticate(raw)
		if err != nil {
			log.Debug().Err(err).Msg("token rejected")
			failure(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Token is valid",
			"user":    user.Public(),
		})
	}
}

func (s *Service) respondWithToken(w http.ResponseWriter, status int, user *users.User, message string) {
	raw, err := s.IssueToken(user)
	if err != nil {
		log.Err(err).Msg("failed to issue token")
		failure(w, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}
	writeJSON(w, status, map[string]any{
		"success": true,
		"message": message,
		"token":   raw,
		"user":    user.Public(),
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(dst); err != nil {
		failure(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validationFailed(w http.ResponseWriter, errs FieldErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

func failure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}
