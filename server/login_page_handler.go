package server

import (
	"net/http"

	"github.com/jrsteele09/greentrace/auth"
)

// LoginPageHandler serves the login page
func (s *Server) LoginPageHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "Sign in")
		data.From = r.URL.Query().Get(ParamFrom)
		p.render(w, r, http.StatusOK, pageLogin, data)
	}
}

// LoginSubmissionHandler validates the form, signs in and sends the user on to
// where they were originally going.
func (s *Server) LoginSubmissionHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, RouteLogin, "Invalid form submission")
			return
		}
		email := r.PostFormValue(auth.FieldEmail)
		password := r.PostFormValue(auth.FieldPassword)
		from := r.PostFormValue(ParamFrom)

		data := s.pageData(r, "Sign in")
		data.From = from
		data.Form = map[string]string{auth.FieldEmail: email}

		if errs := auth.ValidateLogin(email, password); len(errs) > 0 {
			data.Errors = errs
			p.render(w, r, http.StatusUnprocessableEntity, pageLogin, data)
			return
		}

		result := s.session.Login(r.Context(), email, password)
		if !result.Success {
			data.Error = result.Message
			data.Errors = result.Errors
			p.render(w, r, statusFor(result.Kind), pageLogin, data)
			return
		}

		redirectSuccess(w, r, safeRedirectTarget(from))
	}
}
