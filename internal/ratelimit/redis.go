package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// hitScript increments the window counter and arms its expiry when the window
// starts. A key left without a TTL is re-armed so it cannot count forever.
var hitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore keeps window records in Redis so every instance shares one budget.
// Expired windows are removed by Redis key expiry.
type RedisStore struct {
	rdb    goredis.UniversalClient
	clock  clockwork.Clock
	prefix string
}

// NewRedisStore creates a RedisStore. Keys are stored as prefix + identifier.
func NewRedisStore(rdb goredis.UniversalClient, clock clockwork.Clock, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, clock: clock, prefix: prefix}
}

// Hit atomically increments the identity's counter.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Record, error) {
	vals, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Record{}, fmt.Errorf("run hit script: %w", err)
	}
	if len(vals) != 2 {
		return Record{}, fmt.Errorf("unexpected hit script reply: %v", vals)
	}

	return Record{
		Count:   int(vals[0]),
		ResetAt: s.clock.Now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

// Sweep is a no-op: Redis expires window keys on its own.
func (s *RedisStore) Sweep(_ context.Context) (int, error) {
	return 0, nil
}
