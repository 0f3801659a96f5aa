package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/principals"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, errorResponse{Error: code, Description: description})
}

func (s *Server) writeUnauthorized(w http.ResponseWriter, description string) {
	writeError(w, http.StatusUnauthorized, "unauthorized", description)
}

// writeServiceError maps the service error taxonomy onto transport-level
// rejections. Everything else is a 500 and gets logged with its cause.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrUnauthorized),
		apperrors.Is(err, apperrors.ErrInvalidToken),
		apperrors.Is(err, apperrors.ErrTokenExpired):
		s.writeUnauthorized(w, "Invalid credentials or token")
	case apperrors.Is(err, apperrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "Operation not allowed")
	case apperrors.Is(err, apperrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "Resource already exists")
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Resource not found")
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return false
	}
	return true
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
			return
		}

		principal := &principals.Principal{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}
		if err := s.manager.Register(r.Context(), principal, req.Password); err != nil {
			if apperrors.Is(err, apperrors.ErrConflict) {
				s.writeServiceError(w, err)
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, principal)
	}
}

type loginRequest struct {
	Login    string `json:"login"` // username or email
	Password string `json:"password"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		result, err := s.manager.SignIn(r.Context(), req.Login, req.Password)
		if err != nil {
			signInsTotal.WithLabelValues("failure").Inc()
			s.writeServiceError(w, err)
			return
		}
		signInsTotal.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, result)
	}
}

// RefreshHandler rotates the session. The authorizer has already verified
// the refresh token against the store; the manager re-validates under the
// principal's lock so concurrent refreshes cannot both win.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken, ok := bearerToken(r)
		if !ok {
			s.writeUnauthorized(w, "Missing or malformed Authorization header")
			return
		}

		pair, err := s.manager.Refresh(r.Context(), rawToken)
		if err != nil {
			refreshesTotal.WithLabelValues("failure").Inc()
			s.writeServiceError(w, err)
			return
		}
		refreshesTotal.WithLabelValues("success").Inc()
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken, ok := bearerToken(r)
		if !ok {
			s.writeUnauthorized(w, "Missing or malformed Authorization header")
			return
		}

		if err := s.manager.Invalidate(r.Context(), rawToken); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			s.writeUnauthorized(w, "No authenticated principal")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":       claims.Subject,
			"username": claims.Username,
		})
	}
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
