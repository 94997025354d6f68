package handler

import (
	"net/http"

	"github.com/chessmate/chessmate/internal/reliability"
)

// probeView mirrors one reliability.ProbeResult for the /health body.
type probeView struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Required  bool    `json:"required"`
	LatencyMS float64 `json:"latency_ms"`
	Detail    string  `json:"detail,omitempty"`
}

type healthView struct {
	Status string      `json:"status"`
	Checks []probeView `json:"checks"`
}

// HealthHandler serves GET /health by running the configured probes.
type HealthHandler struct {
	Probes []reliability.Probe
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	summary := reliability.RunProbes(r.Context(), h.Probes)

	checks := make([]probeView, 0, len(summary.Probes))
	for _, p := range summary.Probes {
		checks = append(checks, probeView{
			Name:      p.Name,
			Status:    string(p.Status),
			Required:  p.Required,
			LatencyMS: p.LatencyMs,
			Detail:    p.Detail,
		})
	}

	JSON(w, summary.HTTPStatus(), healthView{
		Status: string(summary.Status),
		Checks: checks,
	})
}
