// AngelaMos | 2026
// throttle.go

package identity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

type rateAllower interface {
	Allow(
		ctx context.Context,
		key string,
		limit redis_rate.Limit,
	) (*redis_rate.Result, error)
}

// SignInThrottle caps password attempts per email. Attempts are counted in
// Redis when available and in process memory otherwise.
type SignInThrottle struct {
	remote rateAllower
	local  *localLimiter
	limit  redis_rate.Limit
}

func NewSignInThrottle(
	remote rateAllower,
	attempts int,
	period time.Duration,
) *SignInThrottle {
	return &SignInThrottle{
		remote: remote,
		local:  newLocalLimiter(attempts, period),
		limit: redis_rate.Limit{
			Rate:   attempts,
			Burst:  attempts,
			Period: period,
		},
	}
}

// Allow records one attempt for email and reports whether it may proceed.
// When denied, retryAfter says how long until the next attempt is allowed.
func (t *SignInThrottle) Allow(
	ctx context.Context,
	email string,
) (allowed bool, retryAfter time.Duration) {
	key := "signin:" + strings.ToLower(strings.TrimSpace(email))

	if t.remote != nil {
		res, err := t.remote.Allow(ctx, key, t.limit)
		if err == nil {
			return res.Allowed > 0, res.RetryAfter
		}
		slog.Warn("sign-in throttle unavailable, using local limiter",
			"error", err,
		)
	}

	return t.local.allow(key, time.Now())
}

const localSweepEvery = 256

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is a token bucket per key. Idle buckets are dropped inline
// every localSweepEvery calls, so it needs no background goroutine.
type localLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	every   rate.Limit
	burst   int
	idle    time.Duration
	calls   int
}

func newLocalLimiter(attempts int, period time.Duration) *localLimiter {
	return &localLimiter{
		entries: make(map[string]*localEntry),
		every:   rate.Every(period / time.Duration(attempts)),
		burst:   attempts,
		idle:    period,
	}
}

func (l *localLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%localSweepEvery == 0 {
		l.sweep(now)
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	r := entry.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}

	return true, 0
}

func (l *localLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.entries, key)
		}
	}
}
