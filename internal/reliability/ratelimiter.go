// Package reliability implements the production fabric the HTTP service
// and embedding workers run inside: rate limiting, circuit breaking,
// retry with jitter, health probes, secret sanitisation, and temp-file
// lifecycle management.
package reliability

import (
	"sync"
	"time"
)

// RateLimiterConfig configures one RateLimiter (spec §4.E).
type RateLimiterConfig struct {
	TokensPerMinute   float64
	BucketSize        float64
	BodyBytesPerMinute float64
	BodyBucketSize     float64

	PruneInterval time.Duration
	IdleTimeout   time.Duration

	// TimeSource and Random are injectable for deterministic tests.
	// TimeSource defaults to time.Now. Random has no default and is not
	// read by RateLimiter.
	TimeSource func() time.Time
	Random     func() float64
}

func (c *RateLimiterConfig) withDefaults() {
	if c.PruneInterval <= 0 {
		c.PruneInterval = 500 * time.Millisecond
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.TimeSource == nil {
		c.TimeSource = time.Now
	}
}

// Decision is the outcome of a RateLimiter check.
type Decision struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

type bucket struct {
	requestTokens float64
	bodyTokens    float64
	lastRefill    time.Time
	lastTouched   time.Time
}

// RateLimiter is a per-client dual token-bucket limiter: one bucket
// bounds request count, an optional second bounds request body bytes
// (spec §4.E Rate limiter). A single mutex guards both lookup and
// pruning so the two never race (spec §9: rate-limiter pruning bug).
type RateLimiter struct {
	cfg RateLimiterConfig

	mu          sync.Mutex
	buckets     map[string]*bucket
	lastPruneAt time.Time
}

// NewRateLimiter constructs a RateLimiter from cfg, applying defaults for
// unset PruneInterval/IdleTimeout/TimeSource.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	cfg.withDefaults()
	return &RateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
	}
}

// Check evaluates one request from client, optionally carrying
// bodyBytes of body weight. bodyBytes <= 0 means the request carries no
// body quota and only the request bucket is consulted.
func (r *RateLimiter) Check(client string, bodyBytes int) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.TimeSource()
	b := r.buckets[client]
	if b == nil {
		b = &bucket{
			requestTokens: r.cfg.BucketSize,
			bodyTokens:    r.cfg.BodyBucketSize,
			lastRefill:    now,
		}
		r.buckets[client] = b
	} else {
		r.refill(b, now)
	}
	b.lastTouched = now

	needBody := bodyBytes > 0 && r.cfg.BodyBytesPerMinute > 0
	haveRequest := b.requestTokens >= 1
	haveBody := !needBody || b.bodyTokens >= float64(bodyBytes)

	if haveRequest && haveBody {
		b.requestTokens--
		if needBody {
			b.bodyTokens -= float64(bodyBytes)
		}
		r.maybePrune(now)
		return Decision{Allowed: true, Remaining: b.requestTokens}
	}

	var retryAfter time.Duration
	if !haveRequest {
		retryAfter = deficitDelay(1-b.requestTokens, r.cfg.TokensPerMinute)
	}
	if needBody && !haveBody {
		bodyDelay := deficitDelay(float64(bodyBytes)-b.bodyTokens, r.cfg.BodyBytesPerMinute)
		if bodyDelay > retryAfter {
			retryAfter = bodyDelay
		}
	}

	r.maybePrune(now)
	return Decision{Allowed: false, Remaining: b.requestTokens, RetryAfter: retryAfter}
}

func (r *RateLimiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	if r.cfg.TokensPerMinute > 0 {
		b.requestTokens += elapsed * (r.cfg.TokensPerMinute / 60)
		if b.requestTokens > r.cfg.BucketSize {
			b.requestTokens = r.cfg.BucketSize
		}
	}
	if r.cfg.BodyBytesPerMinute > 0 {
		b.bodyTokens += elapsed * (r.cfg.BodyBytesPerMinute / 60)
		if b.bodyTokens > r.cfg.BodyBucketSize {
			b.bodyTokens = r.cfg.BodyBucketSize
		}
	}
	b.lastRefill = now
}

// deficitDelay returns how long, at the given per-minute rate, it takes
// to accrue `deficit` tokens.
func deficitDelay(deficit, perMinuteRate float64) time.Duration {
	if perMinuteRate <= 0 || deficit <= 0 {
		return 0
	}
	perSecond := perMinuteRate / 60
	seconds := deficit / perSecond
	return time.Duration(seconds * float64(time.Second))
}

// maybePrune removes buckets idle for longer than IdleTimeout, holding
// the same lock as Check so pruning never races a lookup. Caller must
// already hold r.mu.
func (r *RateLimiter) maybePrune(now time.Time) {
	if !r.lastPruneAt.IsZero() && now.Sub(r.lastPruneAt) < r.cfg.PruneInterval {
		return
	}
	r.lastPruneAt = now
	for key, b := range r.buckets {
		if now.Sub(b.lastTouched) >= r.cfg.IdleTimeout {
			delete(r.buckets, key)
		}
	}
}

// BucketCount reports the number of live client buckets, for tests and
// metrics.
func (r *RateLimiter) BucketCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
