package reliability

import (
	"context"
	"time"
)

// ProbeStatus is one health probe's verdict.
type ProbeStatus string

const (
	ProbeOK       ProbeStatus = "ok"
	ProbeDegraded ProbeStatus = "degraded"
	ProbeError    ProbeStatus = "error"
	ProbeSkipped  ProbeStatus = "skipped"
)

// ProbeResult is the outcome of one health probe run (spec §4.E Health probes).
type ProbeResult struct {
	Name      string
	Status    ProbeStatus
	Required  bool
	LatencyMs float64
	Detail    string
}

// Probe checks one dependency (relational store, vector store, cache,
// embedding service) and returns how it's doing.
type Probe struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) (ProbeStatus, string)
}

// Summary is the aggregate health report across every configured probe.
type Summary struct {
	Status ProbeStatus
	Probes []ProbeResult
}

// HTTPStatus maps the summary to the HTTP status code the health
// endpoint should return: ok → 200, degraded|error → 503.
func (s Summary) HTTPStatus() int {
	if s.Status == ProbeOK {
		return 200
	}
	return 503
}

// RunProbes executes every probe (sequentially; probes are expected to
// be individually deadline-bound) and computes the summary status: error
// if any required probe errors; else degraded if any probe errors or is
// degraded; else ok.
func RunProbes(ctx context.Context, probes []Probe) Summary {
	results := make([]ProbeResult, 0, len(probes))
	anyRequiredError := false
	anyDegradedOrError := false

	for _, p := range probes {
		start := time.Now()
		status, detail := p.Check(ctx)
		latency := time.Since(start).Seconds() * 1000

		if status == ProbeError && p.Required {
			anyRequiredError = true
		}
		if status == ProbeError || status == ProbeDegraded {
			anyDegradedOrError = true
		}

		results = append(results, ProbeResult{
			Name:      p.Name,
			Status:    status,
			Required:  p.Required,
			LatencyMs: latency,
			Detail:    detail,
		})
	}

	summary := ProbeOK
	switch {
	case anyRequiredError:
		summary = ProbeError
	case anyDegradedOrError:
		summary = ProbeDegraded
	}

	return Summary{Status: summary, Probes: results}
}
