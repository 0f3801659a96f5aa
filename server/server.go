package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-service/auth"
	"github.com/jrsteele09/go-session-service/internal/config"
	"github.com/jrsteele09/go-session-service/pin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	manager  *auth.SessionManager
	pinGuard *pin.Guard
	logger   zerolog.Logger
}

func New(cfg config.Config, manager *auth.SessionManager, pinGuard *pin.Guard, logger zerolog.Logger) (*Server, error) {
	if manager == nil {
		return nil, errors.New("[Server New] session manager is required")
	}
	if pinGuard == nil {
		return nil, errors.New("[Server New] pin guard is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		manager:  manager,
		pinGuard: pinGuard,
		logger:   logger,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RegisterRoute attaches a policy tag to a route at registration time. The
// tag is read-only afterwards; the authorizer consumes it per request.
func (s *Server) RegisterRoute(pattern string, policy Policy, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)

	_, path, found := strings.Cut(pattern, " ")
	if !found {
		path = pattern
	}

	s.mux.HandleFunc(pattern, ChainMiddleware(handler,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
		s.MetricsMiddleware(path),
		s.Authorize(policy),
	))
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.logger.Debug().Str("route", route).Msg("registered")
	}
}
