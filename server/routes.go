package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() error {
	pages, err := loadPages()
	if err != nil {
		return err
	}

	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(pages), s.HTMLMiddleWare()...))

	// Guest pages; the legacy /auth paths share the same handlers
	for _, path := range []string{RouteLogin, RouteLegacyLogin} {
		s.RegisterRouteHandler("GET "+path, ChainMiddleware(s.LoginPageHandler(pages), s.HTMLMiddleWare(s.RequireGuest(pages))...))
		s.RegisterRouteHandler("POST "+path, ChainMiddleware(s.LoginSubmissionHandler(pages), s.HTMLMiddleWare(s.RequireGuest(pages), s.limiter.Middleware)...))
	}
	for _, path := range []string{RouteSignup, RouteLegacySignup} {
		s.RegisterRouteHandler("GET "+path, ChainMiddleware(s.SignupGetHandler(pages), s.HTMLMiddleWare(s.RequireGuest(pages))...))
		s.RegisterRouteHandler("POST "+path, ChainMiddleware(s.SignupPostHandler(pages), s.HTMLMiddleWare(s.RequireGuest(pages), s.limiter.Middleware)...))
	}

	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordGetHandler(pages), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordPostHandler(pages), s.HTMLMiddleWare(s.limiter.Middleware)...))
	s.RegisterRouteHandler("GET "+RouteResetPassword, ChainMiddleware(s.ResetPasswordGetHandler(pages), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordPostHandler(pages), s.HTMLMiddleWare(s.limiter.Middleware)...))

	// Protected
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(pages), s.HTMLMiddleWare(s.RequireAuth(pages))...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// API routes
	s.RegisterRouteHandler("POST "+RouteAPIValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())

	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(pages), s.HTMLMiddleWare()...))
	return nil
}

func logError(method, path, msg string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, colourRed+msg+colourReset)
}
