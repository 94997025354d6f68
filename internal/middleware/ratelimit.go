// Package middleware carries the chi-compatible HTTP middleware the
// server installs: request-rate limiting and body-size enforcement.
package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/chessmate/chessmate/internal/metrics"
	"github.com/chessmate/chessmate/internal/reliability"
)

// ClientKeyFunc derives the rate-limiter bucket key for a request
// (typically the remote IP, or an API key when auth is configured).
type ClientKeyFunc func(*http.Request) string

// RemoteAddrKey is the default ClientKeyFunc: the request's RemoteAddr.
func RemoteAddrKey(r *http.Request) string {
	return r.RemoteAddr
}

// RateLimit builds a middleware enforcing reliability.RateLimiter
// decisions and, independently, a hard MaxRequestBodyBytes ceiling
// (spec §6: 429 on rate limit with Retry-After; 413 on oversized body).
func RateLimit(limiter *reliability.RateLimiter, maxRequestBodyBytes int64, keyFn ClientKeyFunc, reg *metrics.Registry) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = RemoteAddrKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxRequestBodyBytes > 0 && r.ContentLength > maxRequestBodyBytes {
				if reg != nil {
					reg.APIRateLimitedBodyTotal.Inc()
				}
				writeBodyTooLarge(w)
				return
			}
			if maxRequestBodyBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
			}

			bodyWeight := 0
			if r.ContentLength > 0 {
				bodyWeight = int(r.ContentLength)
			}

			decision := limiter.Check(keyFn(r), bodyWeight)
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatFloat(decision.Remaining, 'f', 0, 64))

			if !decision.Allowed {
				if reg != nil {
					reg.APIRateLimitedTotal.Inc()
				}
				writeRateLimited(w, decision.RetryAfter.Seconds())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfterSeconds float64) {
	seconds := int(math.Ceil(retryAfterSeconds))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.WriteHeader(http.StatusTooManyRequests)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "UPSTREAM_THROTTLED",
			"message": "rate limit exceeded",
		},
	}); err != nil {
		slog.Error("failed to encode rate limit error response", "error", err)
	}
}

func writeBodyTooLarge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "POLICY_VIOLATION",
			"message": "request body exceeds max_request_body_bytes",
		},
	}); err != nil {
		slog.Error("failed to encode body-too-large error response", "error", err)
	}
}
