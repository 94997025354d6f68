package reliability

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Outcome is what Classify decides about one call's result.
type Outcome int

const (
	Resolved Outcome = iota
	Retryable
)

// Classify inspects the error from one attempt and decides whether the
// retry envelope should try again.
type Classify func(err error) Outcome

// RetryConfig configures one retry envelope invocation (spec §4.E Retry
// envelope). Sleep and Random are injectable for deterministic tests;
// they default to time.Sleep and math/rand.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	Jitter       float64

	Classify Classify
	OnRetry  func(attempt int, delay time.Duration, err error)

	Sleep  func(time.Duration)
	Random func() float64
}

func (c *RetryConfig) withDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	if c.Random == nil {
		c.Random = rand.Float64
	}
	if c.Classify == nil {
		c.Classify = func(error) Outcome { return Resolved }
	}
}

// jitterBackOff is a backoff.BackOff whose NextBackOff applies the exact
// jitter formula spec §4.E requires: delay · (1 + (rand·2·jitter −
// jitter)). cenkalti/backoff's built-in ExponentialBackOff uses a
// different jitter shape, so this satisfies backoff.BackOff directly
// rather than configuring the stock implementation.
type jitterBackOff struct {
	next       time.Duration
	multiplier float64
	jitter     float64
	random     func() float64
}

func (j *jitterBackOff) NextBackOff() time.Duration {
	d := jitteredDelay(j.next, j.jitter, j.random())
	j.next = time.Duration(float64(j.next) * j.multiplier)
	return d
}

func (j *jitterBackOff) Reset() {}

func jitteredDelay(delay time.Duration, jitter, random float64) time.Duration {
	factor := 1 + (random*2*jitter - jitter)
	if factor < 0 {
		factor = 0
	}
	return time.Duration(float64(delay) * factor)
}

// Retry runs f up to cfg.MaxAttempts times total, sleeping between
// retryable failures with jittered exponential backoff driven by a
// backoff.BackOff (capped via backoff.WithMaxRetries). It returns as
// soon as Classify reports Resolved (including a nil error), or once
// attempts are exhausted.
func Retry[T any](f func(attempt int) (T, error), cfg RetryConfig) (T, error) {
	cfg.withDefaults()

	var b backoff.BackOff = &jitterBackOff{
		next:       cfg.InitialDelay,
		multiplier: cfg.Multiplier,
		jitter:     cfg.Jitter,
		random:     cfg.Random,
	}
	// WithMaxRetries(b, 0) stops after the first attempt, which is exactly
	// right when MaxAttempts == 1: NextBackOff must return backoff.Stop
	// immediately rather than retry forever.
	b = backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1))

	for attempt := 1; ; attempt++ {
		result, err := f(attempt)

		if err == nil || cfg.Classify(err) == Resolved {
			return result, err
		}

		d := b.NextBackOff()
		if d == backoff.Stop {
			return result, err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, d, err)
		}
		cfg.Sleep(d)
	}
}
