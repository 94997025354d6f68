package handler

import (
	"net/http"

	"github.com/chessmate/chessmate/internal/metrics"
)

// MetricsHandler serves GET /metrics in Prometheus text format.
func MetricsHandler(reg *metrics.Registry) http.Handler {
	return reg.Handler()
}
