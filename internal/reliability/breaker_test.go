package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_DisabledWhenThresholdZero(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{Threshold: 0})
	guard := cb.NewGuard()
	assert.True(t, guard.Allow())
	guard.Failure()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThresholdFailures(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{Name: "agent", Threshold: 2, Cooloff: 50 * time.Millisecond})

	g1 := cb.NewGuard()
	require.True(t, g1.Allow())
	g1.Failure()

	g2 := cb.NewGuard()
	require.True(t, g2.Allow())
	g2.Failure()

	assert.Equal(t, StateOpen, cb.State())

	g3 := cb.NewGuard()
	assert.False(t, g3.Allow())
}

func TestCircuitBreaker_HalfOpenRecoversOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{Name: "agent2", Threshold: 1, Cooloff: 20 * time.Millisecond})

	g1 := cb.NewGuard()
	require.True(t, g1.Allow())
	g1.Failure()
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	probe := cb.NewGuard()
	require.True(t, probe.Allow())
	probe.Success()

	assert.Equal(t, StateClosed, cb.State())
}
