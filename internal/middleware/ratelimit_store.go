// AngelaMos | 2026
// ratelimit_store.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Window is the state of one counter after a hit.
type Window struct {
	Count   int
	ResetAt time.Time
}

// Store counts hits in fixed windows. Hit must be atomic per key: the window
// starts on the first hit and later hits before ResetAt only bump Count.
type Store interface {
	Hit(
		ctx context.Context,
		key string,
		window time.Duration,
		now time.Time,
	) (Window, error)
}

// MemoryStore keeps counters in process memory. Counters are lost on restart
// and are not shared between processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Window)}
}

func (m *MemoryStore) Hit(
	_ context.Context,
	key string,
	window time.Duration,
	now time.Time,
) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.ResetAt) {
		entry = &Window{Count: 1, ResetAt: now.Add(window)}
		m.entries[key] = entry
		return *entry, nil
	}

	entry.Count++
	return *entry, nil
}

// Sweep drops every counter whose window has ended and returns how many
// were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if !now.Before(entry.ResetAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				slog.Debug("rate limit sweep", "removed", n)
			}
		}
	}
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var fixedWindowScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore shares counters between processes through INCR with expiry.
type RedisStore struct {
	client redis.Scripter
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(
	ctx context.Context,
	key string,
	window time.Duration,
	now time.Time,
) (Window, error) {
	vals, err := fixedWindowScript.Run(
		ctx,
		s.client,
		[]string{key},
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if len(vals) != 2 {
		return Window{}, fmt.Errorf(
			"%w: unexpected script reply of %d values",
			ErrStoreUnavailable,
			len(vals),
		)
	}

	return Window{
		Count:   int(vals[0]),
		ResetAt: now.Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}
