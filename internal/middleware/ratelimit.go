package middleware

import (
	"math"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/metrics"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/internal/utils/ratelimit"
)

// RateLimit rejects clients that exceeded limiter's budget with 429 and a
// Retry-After header. Clients are keyed by IP. A failing counter store lets
// the request through.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	scope := limiter.Scope()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := getClientIP(r)

			decision, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				log.Error().
					Err(err).
					Str("scope", scope).
					Msg("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Str("scope", scope).
					Msg("Rate limit exceeded")
				m.Limited(scope)

				utils.TooManyRequests(w, int(math.Ceil(decision.RetryAfter.Seconds())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP returns the host of r.RemoteAddr. Forwarded headers are
// honoured by chi's RealIP middleware earlier in the chain.
func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// isExemptedPath returns true for health and metrics endpoints.
func isExemptedPath(path string) bool {
	for _, prefix := range []string{"/health", "/version", "/metrics"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
