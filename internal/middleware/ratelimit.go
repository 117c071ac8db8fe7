// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/omarkt13/seafable/internal/core"
)

// RateLimitConfig describes one fixed-window limiter instance.
type RateLimitConfig struct {
	Name      string
	Limit     int
	Window    time.Duration
	Store     Store
	Fallback  Store
	FailOpen  bool
	KeyFunc   func(*http.Request) string
	RouteFunc func(*http.Request) string
	Now       func() time.Time
}

// RateLimitResult is the outcome of a single Check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets, never
// less than one.
func (r RateLimitResult) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.RouteFunc == nil {
		cfg.RouteFunc = func(r *http.Request) string {
			return normalizeEndpoint(r.URL.Path)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	return &RateLimiter{config: cfg}
}

func (rl *RateLimiter) Name() string {
	return rl.config.Name
}

// Check counts one request for (clientKey, routeKey) against the limiter's
// current window.
func (rl *RateLimiter) Check(
	ctx context.Context,
	clientKey, routeKey string,
) (RateLimitResult, error) {
	key := rl.storeKey(clientKey, routeKey)
	now := rl.config.Now()

	win, err := rl.config.Store.Hit(ctx, key, rl.config.Window, now)
	if err != nil && rl.config.Fallback != nil {
		slog.Warn("rate limit store error, using fallback",
			"limiter", rl.config.Name,
			"error", err,
		)
		win, err = rl.config.Fallback.Hit(ctx, key, rl.config.Window, now)
	}
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("rate limit %s: %w", rl.config.Name, err)
	}

	remaining := rl.config.Limit - win.Count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   win.Count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: remaining,
		ResetAt:   win.ResetAt,
	}, nil
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := rl.config.KeyFunc(r)
		routeKey := rl.config.RouteFunc(r)

		res, err := rl.Check(r.Context(), clientKey, routeKey)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"limiter", rl.config.Name,
					"error", err,
					"client", clientKey,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.NewAppError(
				err,
				"service unavailable",
				http.StatusServiceUnavailable,
				"SERVICE_UNAVAILABLE",
			))
			return
		}

		setRateLimitHeaders(w, res)

		if !res.Allowed {
			writeRateLimitExceeded(w, res, rl.config.Now())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) storeKey(clientKey, routeKey string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", rl.config.Name, clientKey, routeKey)
}

const unknownClient = "unknown"

// ClientIP takes the first X-Forwarded-For entry, then X-Real-IP, then the
// connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if r.RemoteAddr == "" {
		return unknownClient
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if ip == "" {
		return unknownClient
	}

	return ip
}

func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	normalized := make([]string, 0, len(parts))

	for _, part := range parts {
		if isUUID(part) || isNumeric(part) {
			normalized = append(normalized, "{id}")
		} else {
			normalized = append(normalized, part)
		}
	}

	return "/" + strings.Join(normalized, "/")
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	return s[8] == '-' && s[13] == '-' && s[18] == '-' && s[23] == '-'
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func setRateLimitHeaders(w http.ResponseWriter, res RateLimitResult) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(
	w http.ResponseWriter,
	res RateLimitResult,
	now time.Time,
) {
	retryAfter := res.RetryAfter(now)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	core.JSONError(w, core.RateLimitedError(fmt.Sprintf(
		"Rate limit exceeded. Retry after %d seconds.",
		retryAfter,
	)))
}

// ErrStoreUnavailable is returned by stores that cannot reach their backend.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")
