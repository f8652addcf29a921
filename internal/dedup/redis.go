package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// checkAndRecordScript performs all three dedup checks and the append in
// one atomic server-side step, so concurrent scanners sharing one Redis
// cannot race past the cooldown check.
//
// KEYS[1] = per-symbol history zset
// ARGV    = barTimeKey, opportunityType, tsMillis, cooldownMillis,
//           maxPerHour, retentionMillis
var checkAndRecordScript = redis.NewScript(`
local key = KEYS[1]
local barKey = ARGV[1]
local oppType = ARGV[2]
local ts = tonumber(ARGV[3])
local cooldown = tonumber(ARGV[4])
local maxPerHour = tonumber(ARGV[5])
local retention = tonumber(ARGV[6])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ts - retention)

local member = oppType .. '|' .. barKey
if redis.call('ZSCORE', key, member) then
  return 'duplicate'
end

local near = redis.call('ZRANGEBYSCORE', key, ts - cooldown + 1, ts + cooldown - 1)
for _, m in ipairs(near) do
  local sep = string.find(m, '|', 1, true)
  if sep and string.sub(m, 1, sep - 1) == oppType then
    return 'cooldown'
  end
end

local hourCount = redis.call('ZCOUNT', key, ts - 3600000 + 1, ts)
if hourCount >= maxPerHour then
  return 'rate_limited'
end

redis.call('ZADD', key, ts, member)
redis.call('PEXPIRE', key, retention)
return 'accepted'
`)

// RedisStore is the shared history store for multi-process deployments.
// Same contract as MemoryStore, with the atomicity pushed into a Lua
// script.
type RedisStore struct {
	client *redis.Client
	cfg    Config
	prefix string
}

// NewRedisStore creates a Redis-backed history store
func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{
		client: client,
		cfg:    cfg,
		prefix: "scanner:dedup:",
	}
}

func (r *RedisStore) key(symbol string) string {
	return r.prefix + symbol
}

// CheckAndRecord runs the dedup checks atomically on the Redis side
func (r *RedisStore) CheckAndRecord(ctx context.Context, cand Candidate) (Outcome, error) {
	res, err := checkAndRecordScript.Run(ctx, r.client,
		[]string{r.key(cand.Symbol)},
		cand.BarTimeKey,
		cand.OpportunityType,
		cand.Timestamp.UnixMilli(),
		r.cfg.Cooldown.Milliseconds(),
		r.cfg.MaxPerHour,
		r.cfg.Retention.Milliseconds(),
	).Result()
	if err != nil {
		return "", fmt.Errorf("dedup script failed for %s: %w", cand.Symbol, err)
	}

	outcome, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("unexpected dedup script result %T", res)
	}
	return Outcome(outcome), nil
}

// Count returns the retained history size for a symbol
func (r *RedisStore) Count(ctx context.Context, symbol string) (int, error) {
	n, err := r.client.ZCard(ctx, r.key(symbol)).Result()
	if err != nil {
		return 0, fmt.Errorf("dedup count failed for %s: %w", symbol, err)
	}
	return int(n), nil
}
