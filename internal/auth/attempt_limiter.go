package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/Abhirsi/HawalaSend-backend/internal/cache"
)

const (
	failureKeyPrefix = "login_failures:"
	blockKeyPrefix   = "login_block:"
)

// AttemptLimiter tracks consecutive login failures per source address and
// blocks further attempts once a threshold is reached. State lives in redis
// through the fail-safe cache wrapper: losing it (restart, redis outage)
// degrades to "no lockout", never to a denied login. It is hardening on top
// of the store-level guarantees, not a substitute for them.
type AttemptLimiter struct {
	cache       *cache.Client
	maxFailures int
	blockFor    time.Duration
}

// NewAttemptLimiter creates a limiter blocking a source after maxFailures
// consecutive failures for blockFor.
func NewAttemptLimiter(c *cache.Client, maxFailures int, blockFor time.Duration) *AttemptLimiter {
	return &AttemptLimiter{cache: c, maxFailures: maxFailures, blockFor: blockFor}
}

// Blocked reports whether the source is currently blocked and, if so, how
// long until it may retry. A block key always carries a TTL, so blocked and
// blocked-until are set and cleared together.
func (l *AttemptLimiter) Blocked(ctx context.Context, source string) (bool, time.Duration) {
	data, _ := l.cache.Get(ctx, blockKeyPrefix+source)
	if data == nil {
		return false, 0
	}
	retryAfter, _ := l.cache.TTL(ctx, blockKeyPrefix+source)
	if retryAfter <= 0 {
		retryAfter = l.blockFor
	}
	return true, retryAfter
}

// RecordFailure increments the consecutive-failure counter and installs the
// block once the threshold is reached.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, source string) {
	n, _ := l.cache.Incr(ctx, failureKeyPrefix+source, l.blockFor)
	if n >= int64(l.maxFailures) {
		_ = l.cache.Set(ctx, blockKeyPrefix+source, []byte(strconv.FormatInt(n, 10)), l.blockFor)
		_ = l.cache.Delete(ctx, failureKeyPrefix+source)
	}
}

// Reset clears failure state after a successful login.
func (l *AttemptLimiter) Reset(ctx context.Context, source string) {
	_ = l.cache.Delete(ctx, failureKeyPrefix+source)
	_ = l.cache.Delete(ctx, blockKeyPrefix+source)
}
