package reliability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) (ProbeStatus, string)       { return ProbeOK, "" }
func degraded(context.Context) (ProbeStatus, string) { return ProbeDegraded, "slow" }
func errored(context.Context) (ProbeStatus, string)  { return ProbeError, "down" }

func TestRunProbes_AllOkIsOk(t *testing.T) {
	s := RunProbes(context.Background(), []Probe{
		{Name: "db", Required: true, Check: ok},
		{Name: "vector", Required: true, Check: ok},
	})
	assert.Equal(t, ProbeOK, s.Status)
	assert.Equal(t, 200, s.HTTPStatus())
}

func TestRunProbes_RequiredErrorIsError(t *testing.T) {
	s := RunProbes(context.Background(), []Probe{
		{Name: "db", Required: true, Check: errored},
		{Name: "cache", Required: false, Check: ok},
	})
	assert.Equal(t, ProbeError, s.Status)
	assert.Equal(t, 503, s.HTTPStatus())
}

func TestRunProbes_NonRequiredErrorIsDegraded(t *testing.T) {
	s := RunProbes(context.Background(), []Probe{
		{Name: "db", Required: true, Check: ok},
		{Name: "cache", Required: false, Check: errored},
	})
	assert.Equal(t, ProbeDegraded, s.Status)
	assert.Equal(t, 503, s.HTTPStatus())
}

func TestRunProbes_DegradedNonRequiredIsDegraded(t *testing.T) {
	s := RunProbes(context.Background(), []Probe{
		{Name: "db", Required: true, Check: ok},
		{Name: "embedding", Required: false, Check: degraded},
	})
	assert.Equal(t, ProbeDegraded, s.Status)
}
