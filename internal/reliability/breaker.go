package reliability

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerState mirrors the three states spec §4.E names explicitly, for
// metrics export (agent_circuit_breaker_state: 0=closed, 1=open,
// 2=half_open).
type BreakerState int

const (
	StateClosed   BreakerState = 0
	StateOpen     BreakerState = 1
	StateHalfOpen BreakerState = 2
)

// BreakerConfig configures a CircuitBreaker. Threshold=0 disables the
// breaker entirely (spec §4.E).
type BreakerConfig struct {
	Name      string
	Threshold uint32
	Cooloff   time.Duration
}

// CircuitBreaker wraps gobreaker's two-step breaker. It is safe to share
// across concurrent requests, but each call that needs to later record
// Success/Failure must do so through a Session obtained from NewSession — the
// underlying breaker only supports one open probe/token at a time per
// caller, matching spec §4.C's "acquire a token ... record success/
// failure" call path.
type CircuitBreaker struct {
	disabled bool
	inner    *gobreaker.TwoStepCircuitBreaker
}

// Session is a single acquired token: the caller must call exactly one
// of Success/Failure after a Session was obtained via a successful
// NewSession, before discarding it. Session implements hybrid.CircuitBreaker.
type Session struct {
	mu   sync.Mutex
	done func(bool)
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.Threshold == 0 {
		return &CircuitBreaker{disabled: true}
	}
	settings := gobreaker.Settings{
		Name: cfg.Name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Threshold
		},
		Timeout: cfg.Cooloff,
	}
	return &CircuitBreaker{
		inner: gobreaker.NewTwoStepCircuitBreaker(settings),
	}
}

// NewSession attempts to acquire one token from the breaker. When the
// breaker is open and cooloff has not elapsed, ok is false and callers
// must skip the guarded call entirely (spec §4.C step 1).
func (c *CircuitBreaker) NewSession() (*Session, bool) {
	if c.disabled {
		return &Session{done: func(bool) {}}, true
	}
	done, err := c.inner.Allow()
	if err != nil {
		return nil, false
	}
	return &Session{done: done}, true
}

// Allow always returns true: by the time a Session exists, the token has
// already been acquired by NewSession. Allow exists so *Session
// satisfies hybrid.CircuitBreaker, which checks Allow before the first
// guarded call in some call paths (e.g. a session reused defensively).
func (s *Session) Allow() bool { return true }

func (s *Session) Success() { s.finish(true) }
func (s *Session) Failure() { s.finish(false) }

func (s *Session) finish(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return
	}
	s.done(success)
	s.done = nil
}

// Guard adapts one breaker decision to the Allow/Success/Failure shape
// hybrid.Deps.AgentCircuitBreaker expects, so wiring code can hand the
// executor a guard per request without the two packages depending on
// each other's types.
type Guard struct {
	denied  bool
	session *Session
}

// NewGuard acquires (or is denied) one token, wrapping the result so the
// executor's single Allow/Success/Failure call sequence works whether or
// not the breaker actually granted a probe.
func (c *CircuitBreaker) NewGuard() *Guard {
	session, ok := c.NewSession()
	if !ok {
		return &Guard{denied: true}
	}
	return &Guard{session: session}
}

func (g *Guard) Allow() bool { return !g.denied }

func (g *Guard) Success() {
	if g.session != nil {
		g.session.Success()
	}
}

func (g *Guard) Failure() {
	if g.session != nil {
		g.session.Failure()
	}
}

// State returns the current breaker state for metrics export.
func (c *CircuitBreaker) State() BreakerState {
	if c.disabled {
		return StateClosed
	}
	switch c.inner.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
