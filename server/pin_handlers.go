package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
)

type pinSetupRequest struct {
	PIN         string `json:"pin"`
	PINLength   int    `json:"pin_length,omitempty"`   // zero selects the configured default
	MaxAttempts int    `json:"max_attempts,omitempty"` // zero selects the configured default
}

func (s *Server) PINSetupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			s.writeUnauthorized(w, "No authenticated principal")
			return
		}

		var req pinSetupRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.PIN == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "pin is required")
			return
		}
		if req.PINLength == 0 {
			req.PINLength = s.config.GetPINLength()
		}
		if req.MaxAttempts == 0 {
			req.MaxAttempts = s.config.GetPINMaxAttempts()
		}

		if err := s.pinGuard.Setup(r.Context(), claims.Subject, req.PIN, req.PINLength, req.MaxAttempts); err != nil {
			if apperrors.Is(err, apperrors.ErrConflict) {
				s.writeServiceError(w, err)
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request", "pin does not meet requirements")
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

type pinVerifyRequest struct {
	PIN string `json:"pin"`
}

func (s *Server) PINVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			s.writeUnauthorized(w, "No authenticated principal")
			return
		}

		var req pinVerifyRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := s.pinGuard.Verify(r.Context(), claims.Subject, req.PIN); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
	}
}
