package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessmate/chessmate/internal/reliability"
)

func TestHealthHandler_AllOK(t *testing.T) {
	h := &HealthHandler{Probes: []reliability.Probe{
		{Name: "postgres", Required: true, Check: func(ctx context.Context) (reliability.ProbeStatus, string) {
			return reliability.ProbeOK, ""
		}},
	}}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthHandler_RequiredFailureIs503(t *testing.T) {
	h := &HealthHandler{Probes: []reliability.Probe{
		{Name: "postgres", Required: true, Check: func(ctx context.Context) (reliability.ProbeStatus, string) {
			return reliability.ProbeError, "connection refused"
		}},
	}}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
