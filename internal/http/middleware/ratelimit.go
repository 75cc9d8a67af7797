package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-quotes-api/internal/errs"
	"github.com/tbourn/go-quotes-api/internal/http/envelope"
)

// Rate limiting is process-local: one token bucket per client key, created on
// first use and swept once idle. Idempotent replays flagged by
// IdempotencyValidator skip the bucket entirely.

const (
	bucketIdleTTL   = 10 * time.Minute
	sweepEveryCalls = 5000
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByClientIP buckets requests by client IP (honoring the engine's trusted
// proxy settings). Keys carry an "ip:" prefix.
func KeyByClientIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	key   keyFunc
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	calls   uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, key keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		key:     key,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		idleTTL: bucketIdleTTL,
	}
}

// limiter returns the bucket for key, creating it when absent. Every
// sweepEveryCalls lookups idle buckets are dropped first, so a stale bucket is
// replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.calls++
	if rl.calls >= sweepEveryCalls {
		rl.sweep(now)
		rl.calls = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{lim: lim, lastSeen: now}
	return lim
}

// sweep drops buckets idle for at least idleTTL. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.idleTTL {
			delete(rl.buckets, k)
		}
	}
}

// retryAfter is the whole number of seconds until one token is refilled.
func (rl *RateLimiter) retryAfter() int {
	if rl.rps <= 0 {
		return 60
	}
	return int(math.Max(1, math.Ceil(1/float64(rl.rps))))
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. Rejected requests get 429 rate_limited in the
// standard envelope with Retry-After and X-RateLimit-Limit set.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		if rl.limiter(rl.key(c)).AllowN(rl.now(), 1) {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(rl.retryAfter()))
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		envelope.FailKind(c, errs.RateLimited, "")
	}
}
