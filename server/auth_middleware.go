package server

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/jrsteele09/greentrace/internal/metrics"
)

// Guard names and decisions recorded in metrics
const (
	guardRequireAuth  = "require_auth"
	guardRequireGuest = "require_guest"

	decisionLoading  = "loading"
	decisionAllow    = "allow"
	decisionRedirect = "redirect"
)

// RequireAuth lets authenticated sessions through. While the session is loading it
// renders the loading page instead of redirecting; otherwise it sends the user to the
// login page, remembering where they were going.
func (s *Server) RequireAuth(p pages) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state := s.session.State()
			switch {
			case state.IsLoading:
				metrics.GuardDecisions.WithLabelValues(guardRequireAuth, decisionLoading).Inc()
				s.renderLoading(w, r, p)
			case state.IsAuthenticated:
				metrics.GuardDecisions.WithLabelValues(guardRequireAuth, decisionAllow).Inc()
				next(w, r)
			default:
				metrics.GuardDecisions.WithLabelValues(guardRequireAuth, decisionRedirect).Inc()
				redirectSuccess(w, r, RouteLogin+"?"+ParamFrom+"="+url.QueryEscape(r.URL.RequestURI()))
			}
		}
	}
}

// RequireGuest keeps signed in users away from the login and signup pages
func (s *Server) RequireGuest(p pages) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			state := s.session.State()
			switch {
			case state.IsLoading:
				metrics.GuardDecisions.WithLabelValues(guardRequireGuest, decisionLoading).Inc()
				s.renderLoading(w, r, p)
			case state.IsAuthenticated:
				metrics.GuardDecisions.WithLabelValues(guardRequireGuest, decisionRedirect).Inc()
				redirectSuccess(w, r, safeRedirectTarget(r.FormValue(ParamFrom)))
			default:
				metrics.GuardDecisions.WithLabelValues(guardRequireGuest, decisionAllow).Inc()
				next(w, r)
			}
		}
	}
}

// renderLoading shows the loading page and asks the browser to retry shortly
func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request, p pages) {
	w.Header().Set("Refresh", "1")
	w.Header().Set("Cache-Control", "no-store")
	p.render(w, r, http.StatusOK, pageLoading, s.pageData(r, "Loading"))
}

// safeRedirectTarget accepts only local absolute paths and falls back to the dashboard.
// Browsers drop tabs and newlines from URLs, so control characters are rejected too.
func safeRedirectTarget(from string) string {
	if from == "" || strings.ContainsFunc(from, unicode.IsControl) {
		return RouteDashboard
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return RouteDashboard
	}
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, `/\`) {
		return RouteDashboard
	}
	return from
}
