package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/reliability"
)

func newTestLimiter(bucketSize float64) *reliability.RateLimiter {
	return reliability.NewRateLimiter(reliability.RateLimiterConfig{
		TokensPerMinute: 60,
		BucketSize:      bucketSize,
	})
}

func TestRateLimit_AllowsUnderBucket(t *testing.T) {
	limiter := newTestLimiter(2)
	var called bool
	h := RateLimit(limiter, 0, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_429WhenExhausted(t *testing.T) {
	limiter := newTestLimiter(1)
	h := RateLimit(limiter, 0, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.RemoteAddr = "1.2.3.4:1111"

	first := httptest.NewRecorder()
	h.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestRateLimit_413WhenBodyTooLarge(t *testing.T) {
	limiter := newTestLimiter(10)
	h := RateLimit(limiter, 10, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("this body is far too large"))
	req.ContentLength = int64(len("this body is far too large"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimit_DisabledWhenMaxBodyZero(t *testing.T) {
	limiter := newTestLimiter(10)
	h := RateLimit(limiter, 0, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(strings.Repeat("x", 10_000)))
	req.ContentLength = 10_000
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoteAddrKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:5555"
	assert.Equal(t, "9.9.9.9:5555", RemoteAddrKey(req))
}
