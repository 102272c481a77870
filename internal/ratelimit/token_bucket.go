package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

var (
	ErrNotConfigured = errors.New("rate_limiter_not_configured")
	ErrInvalidBucket = errors.New("invalid_bucket")
	ErrBadReply      = errors.New("invalid_rate_limit_reply")
)

// The bucket lives in a redis hash so every replica draws from it. Redis
// truncates Lua numbers to integers on return, so the remaining balance is
// reported in thousandths of a token.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = (t[1] * 1000) + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])

if tokens == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - ts)
  tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, math.floor(tokens * 1000), now}
`

// TokenBucket is a redis-backed bucket shared by every store replica.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

// Decision is the outcome of one draw from a bucket.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

// Take draws one token from the bucket at key, refilled at rate tokens per
// second up to burst.
func (t *TokenBucket) Take(ctx context.Context, key string, rate float64, burst int) (Decision, error) {
	if t == nil || t.client == nil {
		return Decision{}, ErrNotConfigured
	}
	if key == "" || rate <= 0 || burst <= 0 {
		return Decision{}, ErrInvalidBucket
	}

	reply, err := t.script.Run(ctx, t.client, []string{key},
		rate,
		burst,
		bucketTTL(rate, burst).Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	return decide(reply, rate, burst)
}

// decide turns the script reply {allowed, millitokens, now_ms} into a
// Decision.
func decide(reply []int64, rate float64, burst int) (Decision, error) {
	if len(reply) != 3 {
		return Decision{}, ErrBadReply
	}
	allowed := reply[0] == 1
	remaining := float64(reply[1]) / 1000

	var retryAfter time.Duration
	if !allowed && remaining < 1 {
		retryAfter = time.Duration((1 - remaining) / rate * float64(time.Second))
	}
	return Decision{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  int(remaining),
		RetryAfter: retryAfter,
		ResetAt:    time.UnixMilli(reply[2]).Add(retryAfter),
	}, nil
}

// bucketTTL keeps an idle bucket around for twice the time a full refill
// takes.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	seconds := math.Max(1, math.Ceil(float64(burst)/rate*2))
	return time.Duration(seconds) * time.Second
}
