package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/greentrace/apiclient"
	"github.com/jrsteele09/greentrace/auth"
	"github.com/jrsteele09/greentrace/internal/config"
)

// SessionManager is the session surface the web shell needs
type SessionManager interface {
	State() auth.State
	Login(ctx context.Context, email, password string) auth.Result
	Register(ctx context.Context, req apiclient.SignupRequest) auth.Result
	Logout(ctx context.Context) auth.Result
	ForgotPassword(ctx context.Context, email string) auth.Result
	ResetPassword(ctx context.Context, resetToken, newPassword string) auth.Result
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	session SessionManager
	limiter *RateLimiter
	cors    func(http.Handler) http.Handler
}

func New(cfg config.Config, session SessionManager) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if session == nil {
		return nil, errors.New("[Server New] session manager is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		session: session,
		limiter: NewRateLimiter(cfg.GetSubmitRate(), cfg.GetSubmitBurst()),
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.GetAllowedOrigins().List(),
			AllowedMethods:   cfg.GetAllowedMethods(),
			AllowedHeaders:   cfg.GetAllowedHeaders(),
			AllowCredentials: true,
			MaxAge:           86400,
		}),
	}

	if err := s.initRoutes(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Limiter exposes the submission rate limiter so its cleanup can be scheduled
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
