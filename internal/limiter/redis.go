package limiter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guardrailhq/aegis/internal/types"
)

// counterScript performs the capped increment atomically on the server.
// KEYS[1] is the counter, KEYS[2] the first-attempt anchor. ARGV: max,
// window millis (0 = permanent), now millis. Returns {allowed, count, first}.
// An over-cap increment is rolled back so no observer sees count exceed max.
var counterScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("SET", KEYS[2], ARGV[3])
  if tonumber(ARGV[2]) > 0 then
    redis.call("PEXPIRE", KEYS[1], ARGV[2])
    redis.call("PEXPIRE", KEYS[2], ARGV[2])
  end
end
local first = tonumber(redis.call("GET", KEYS[2]) or ARGV[3])
if c > tonumber(ARGV[1]) then
  redis.call("DECR", KEYS[1])
  return {0, c - 1, first}
end
return {1, c, first}
`)

// RedisCounterStore is a CounterStore backed by a shared Redis instance, for
// deployments where multiple processes must see one attempt count per key.
// Window expiry is enforced server-side via PEXPIRE set on the first attempt.
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCounterStore creates a counter store on client. Keys are namespaced
// under prefix ("regen:" by default).
func NewRedisCounterStore(client *redis.Client, prefix string) *RedisCounterStore {
	if prefix == "" {
		prefix = "regen:"
	}
	return &RedisCounterStore{client: client, prefix: prefix}
}

// Increment applies the counter contract through the server-side script.
func (s *RedisCounterStore) Increment(ctx context.Context, key string, max int, now time.Time, resetWindow time.Duration) (Verdict, error) {
	keys := []string{s.prefix + key, s.prefix + key + ":first"}
	args := []interface{}{max, resetWindow.Milliseconds(), now.UnixMilli()}

	res, err := counterScript.Run(ctx, s.client, keys, args...).Int64Slice()
	if err != nil {
		return Verdict{}, types.WrapError(types.LIMITER_STORE_FAILED, "failed to increment counter", err)
	}
	if len(res) != 3 {
		return Verdict{}, types.NewError(types.LIMITER_STORE_FAILED, "unexpected counter script reply")
	}

	return Verdict{
		Allowed: res[0] == 1,
		Entry: CounterEntry{
			Count:          int(res[1]),
			FirstAttemptAt: time.UnixMilli(res[2]),
		},
	}, nil
}

// Get returns the current count for key. Expiry is handled by the key TTL,
// so no explicit stale-entry reset is needed here.
func (s *RedisCounterStore) Get(ctx context.Context, key string, now time.Time, resetWindow time.Duration) (int, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, types.WrapError(types.LIMITER_STORE_FAILED, "failed to read counter", err)
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, types.WrapError(types.LIMITER_STORE_FAILED, "malformed counter value", err)
	}
	return count, nil
}

// Reset deletes the counter and its first-attempt anchor.
func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key, s.prefix+key+":first").Err(); err != nil {
		return types.WrapError(types.LIMITER_STORE_FAILED, "failed to reset counter", err)
	}
	return nil
}

// Clear removes every key under the store's prefix.
func (s *RedisCounterStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return types.WrapError(types.LIMITER_STORE_FAILED, "failed to clear counters", err)
		}
	}
	if err := iter.Err(); err != nil {
		return types.WrapError(types.LIMITER_STORE_FAILED, "failed to scan counters", err)
	}
	return nil
}
