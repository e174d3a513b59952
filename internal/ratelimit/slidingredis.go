package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims expired members, then admits the event only while the
// window holds fewer than max members. Rejected events are not recorded, so a
// client that keeps retrying is not locked out past the window.
//
// KEYS[1] window key; ARGV: now ms, window ms, max, member.
// Returns {allowed, count, oldest ms}.
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local allowed = 0
if count < max then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  redis.call('PEXPIRE', KEYS[1], window)
  count = count + 1
  allowed = 1
end
local oldest = now
local first = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// Limiter is a sliding window rate limiter backed by one Redis sorted set per
// key. Scores are admission times in milliseconds.
type Limiter struct {
	Client *redis.Client
	Prefix string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Allow admits one event for key when fewer than max were admitted within the
// trailing window. reset is when the oldest admitted event leaves the window.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	vals, err := slidingWindow.Run(ctx, l.Client,
		[]string{l.Prefix + key},
		now.UnixMilli(), window.Milliseconds(), max, key+":"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), fmt.Errorf("ratelimit: %w", err)
	}
	if len(vals) != 3 {
		return false, 0, now.Add(window), fmt.Errorf("ratelimit: unexpected script reply %v", vals)
	}

	remaining = max - int(vals[1])
	if remaining < 0 {
		remaining = 0
	}
	reset = time.UnixMilli(vals[2]).Add(window)
	return vals[0] == 1, remaining, reset, nil
}
