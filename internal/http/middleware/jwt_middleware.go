package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/eonlab/eon-accounts/internal/domain"
	"github.com/eonlab/eon-accounts/internal/http/response"
	"github.com/eonlab/eon-accounts/internal/session"
	"github.com/eonlab/eon-accounts/pkg/auth"
	"github.com/eonlab/eon-accounts/pkg/logger"
)

type ctxKey string

const ctxPrincipal ctxKey = "principal"

// RequireJWT turns a Bearer token into the principal every core operation
// receives. Tokens issued before a revocation marker are refused, which is
// how best-effort session termination becomes visible at the edge.
func RequireJWT(secret string, sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing or invalid authorization header")
				return
			}

			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.Unauthorized(w, "invalid authorization token")
				return
			}

			if sessions != nil {
				revokedAt, revoked, err := sessions.RevokedSince(r.Context(), claims.Sub)
				if err != nil {
					// Fail open: revocation is best-effort by contract.
					logger.WarnContext(r.Context(), "Session revocation check failed", "error", err)
				} else if revoked && issuedBefore(claims, revokedAt) {
					response.Unauthorized(w, "session has been terminated")
					return
				}
			}

			principal := domain.Principal{
				AccountID: claims.Sub,
				Role:      claims.Role,
			}

			ctx := context.WithValue(r.Context(), ctxPrincipal, principal)
			ctx = context.WithValue(ctx, logger.AccountIDKey, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree on the principal's role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := Principal(r)
			if !ok {
				response.Unauthorized(w, "authentication required")
				return
			}
			if principal.Role != role {
				response.Forbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Principal extracts the authenticated caller placed by RequireJWT.
func Principal(r *http.Request) (domain.Principal, bool) {
	v := r.Context().Value(ctxPrincipal)
	if v == nil {
		return domain.Principal{}, false
	}
	principal, ok := v.(domain.Principal)
	return principal, ok
}

func issuedBefore(claims *auth.Claims, cutoff time.Time) bool {
	if claims.IssuedAt == nil {
		return true
	}
	return !claims.IssuedAt.Time.After(cutoff)
}
