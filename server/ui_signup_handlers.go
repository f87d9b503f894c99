package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/greentrace/auth"
)

const maxPasswordRequestBytes = 4 << 10

type validatePasswordRequest struct {
	Password string `json:"password"`
}

type validatePasswordResponse struct {
	auth.Strength
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidatePasswordHandler scores a password for the live strength meter. It accepts
// either a JSON body or a form field named password.
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		var password string
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			var req validatePasswordRequest
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPasswordRequestBytes)).Decode(&req); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			password = req.Password
		} else {
			r.Body = http.MaxBytesReader(w, r.Body, maxPasswordRequestBytes)
			if err := r.ParseForm(); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
				return
			}
			password = r.PostFormValue(auth.FieldPassword)
		}

		msg := auth.ValidatePassword(password)
		writeJSON(w, http.StatusOK, validatePasswordResponse{
			Strength: auth.PasswordStrength(password),
			Valid:    msg == "",
			Error:    msg,
		})
	}
}

// SignupGetHandler renders the signup page
func (s *Server) SignupGetHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "Create account")
		data.From = r.URL.Query().Get(ParamFrom)
		p.render(w, r, http.StatusOK, pageSignup, data)
	}
}

// SignupPostHandler validates the registration form and creates the account
func (s *Server) SignupPostHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, RouteSignup, "Invalid form submission")
			return
		}
		form := auth.SignupForm{
			FirstName:       r.PostFormValue(auth.FieldFirstName),
			LastName:        r.PostFormValue(auth.FieldLastName),
			Email:           r.PostFormValue(auth.FieldEmail),
			Password:        r.PostFormValue(auth.FieldPassword),
			ConfirmPassword: r.PostFormValue(auth.FieldConfirmPassword),
			AcceptTerms:     r.PostFormValue(auth.FieldTerms) == "on",
		}
		from := r.PostFormValue(ParamFrom)

		data := s.pageData(r, "Create account")
		data.From = from
		data.Form = map[string]string{
			auth.FieldFirstName: form.FirstName,
			auth.FieldLastName:  form.LastName,
			auth.FieldEmail:     form.Email,
			auth.FieldTerms:     r.PostFormValue(auth.FieldTerms),
		}
		strength := auth.PasswordStrength(form.Password)
		data.Strength = &strength

		if errs := auth.ValidateSignup(form); len(errs) > 0 {
			data.Errors = errs
			p.render(w, r, http.StatusUnprocessableEntity, pageSignup, data)
			return
		}

		result := s.session.Register(r.Context(), form.Request())
		if !result.Success {
			data.Error = result.Message
			data.Errors = result.Errors
			p.render(w, r, statusFor(result.Kind), pageSignup, data)
			return
		}

		redirectSuccess(w, r, safeRedirectTarget(from))
	}
}

// ForgotPasswordGetHandler renders the forgot-password page
func (s *Server) ForgotPasswordGetHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, http.StatusOK, pageForgotPassword, s.pageData(r, "Forgot password"))
	}
}

// ForgotPasswordPostHandler requests reset instructions. In development the reset
// link is shown directly since no mail is sent.
func (s *Server) ForgotPasswordPostHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, RouteForgotPassword, "Invalid form submission")
			return
		}
		email := r.PostFormValue(auth.FieldEmail)

		data := s.pageData(r, "Forgot password")
		data.Form = map[string]string{auth.FieldEmail: email}
		if msg := auth.ValidateEmail(email); msg != "" {
			data.Errors = map[string]string{auth.FieldEmail: msg}
			p.render(w, r, http.StatusUnprocessableEntity, pageForgotPassword, data)
			return
		}

		result := s.session.ForgotPassword(r.Context(), email)
		if !result.Success {
			data.Error = result.Message
			p.render(w, r, statusFor(result.Kind), pageForgotPassword, data)
			return
		}

		data.Message = result.Message
		if resetToken, ok := result.Data["resetToken"].(string); ok && resetToken != "" && s.config.IsDev() {
			data.ResetLink = RouteResetPassword + "?" + ParamToken + "=" + url.QueryEscape(resetToken)
		}
		p.render(w, r, http.StatusOK, pageForgotPassword, data)
	}
}

// ResetPasswordGetHandler renders the reset form for the token in the link
func (s *Server) ResetPasswordGetHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "Reset password")
		data.Token = r.URL.Query().Get(ParamToken)
		if data.Token == "" && data.Error == "" {
			data.Error = "Reset token is required"
		}
		p.render(w, r, http.StatusOK, pageResetPassword, data)
	}
}

// ResetPasswordPostHandler sets the new password and returns to the login page
func (s *Server) ResetPasswordPostHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, RouteResetPassword, "Invalid form submission")
			return
		}
		resetToken := r.PostFormValue(ParamToken)
		password := r.PostFormValue(auth.FieldPassword)
		confirm := r.PostFormValue(auth.FieldConfirmPassword)

		data := s.pageData(r, "Reset password")
		data.Token = resetToken

		errs := map[string]string{}
		if msg := auth.ValidatePassword(password); msg != "" {
			errs[auth.FieldPassword] = msg
		}
		if msg := auth.ValidateConfirmPassword(confirm, password); msg != "" {
			errs[auth.FieldConfirmPassword] = msg
		}
		if len(errs) > 0 {
			data.Errors = errs
			p.render(w, r, http.StatusUnprocessableEntity, pageResetPassword, data)
			return
		}

		result := s.session.ResetPassword(r.Context(), resetToken, password)
		if !result.Success {
			data.Error = result.Message
			p.render(w, r, statusFor(result.Kind), pageResetPassword, data)
			return
		}

		redirectWithMessage(w, r, RouteLogin, result.Message)
	}
}
