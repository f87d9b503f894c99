package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/greentrace/auth"
)

// pageData builds the common template model for r
func (s *Server) pageData(r *http.Request, title string) PageData {
	query := r.URL.Query()
	return PageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Session: s.session.State(),
		Error:   query.Get(ParamError),
		Message: query.Get(ParamMessage),
	}
}

// statusFor maps a failed session result to the status of the re-rendered form
func statusFor(kind auth.FailureKind) int {
	switch kind {
	case auth.ValidationFailure:
		return http.StatusUnprocessableEntity
	case auth.Unauthorized:
		return http.StatusUnauthorized
	case auth.NetworkFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// IndexHandler renders the landing page
func (s *Server) IndexHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, http.StatusOK, pageIndex, s.pageData(r, ""))
	}
}

func (s *Server) DashboardHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		p.render(w, r, http.StatusOK, pageDashboard, s.pageData(r, "Dashboard"))
	}
}

// LogoutHandler ends the session; it succeeds even if the API is unreachable
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := s.session.Logout(r.Context())
		redirectWithMessage(w, r, RouteLogin, result.Message)
	}
}

func (s *Server) NotFoundHandler(p pages) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.render(w, r, http.StatusNotFound, pageNotFound, s.pageData(r, "Page not found"))
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Loading       bool   `json:"loading"`
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.session.State()
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			Authenticated: state.IsAuthenticated,
			Loading:       state.IsLoading,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
