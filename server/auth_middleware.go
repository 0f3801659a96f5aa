package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-service/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPrincipalID stores the authenticated principal ID
	ContextKeyPrincipalID ContextKey = "principal_id"
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the verified claims the authorizer attached, or
// nil on public routes.
func ClaimsFromContext(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims
}

// Authorize is the per-request gate. It classifies the request by the
// route's policy tag and either rejects it or annotates the context with the
// decoded principal. Pure classification plus verification; no side effects
// beyond that.
func (s *Server) Authorize(policy Policy) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if policy == PolicyPublic {
				next(w, r)
				return
			}

			rawToken, ok := bearerToken(r)
			if !ok {
				s.writeUnauthorized(w, "Missing or malformed Authorization header")
				return
			}

			var (
				claims *token.Claims
				err    error
			)
			switch policy {
			case PolicyRefresh:
				claims, err = s.manager.AuthorizeRefresh(r.Context(), rawToken)
			default: // PolicyAccess, PolicyPINSetupExempt
				claims, err = s.manager.AuthorizeAccess(rawToken)
			}
			if err != nil {
				s.writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipalID, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return "", false
	}
	return rawToken, true
}
