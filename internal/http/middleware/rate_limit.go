package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/eonlab/eon-accounts/internal/http/response"
	"github.com/eonlab/eon-accounts/internal/repo/postgres"
	"github.com/eonlab/eon-accounts/pkg/logger"
)

// CodeRequestRateLimit caps how often a client may ask for a fresh
// verification code. Issuance itself stays idempotent; this only slows
// down mail floods.
func CodeRequestRateLimit(repo postgres.RateLimitRepository, requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "code_request:" + clientIP(r)

			allowed, err := repo.CheckRateLimit(r.Context(), key, requests, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
				// Allow request on error (fail open)
			} else if !allowed {
				response.RateLimit(w, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
