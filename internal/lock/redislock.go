package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoCallback is returned when WithLock is called without work to run.
var ErrNoCallback = errors.New("lock: callback not provided")

// releaseScript deletes the key only while it still holds our token, so a holder
// whose ttl lapsed cannot drop a lock taken over by someone else.
var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

const (
	defaultTTL        = 30 * time.Second
	defaultBackoff    = 25 * time.Millisecond
	defaultMaxBackoff = 400 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// Locker serialises work on a key across processes through Redis. A Locker
// without a client runs callbacks unguarded, which is the single-replica mode.
type Locker struct {
	R *redis.Client

	// RetryBackoff is the first wait between acquisition attempts. It doubles
	// up to MaxBackoff.
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

// WithLock runs fn while holding the lock for key. The lock expires after ttl
// if the holder dies and is released when fn returns. When ctx ends before the
// lock is acquired, ctx's error is returned.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if fn == nil {
		return ErrNoCallback
	}
	if l.R == nil {
		return fn(ctx)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	token := uuid.NewString()
	if err := l.acquire(ctx, key, token, ttl); err != nil {
		return err
	}
	defer l.release(ctx, key, token)
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	wait := l.RetryBackoff
	if wait <= 0 {
		wait = defaultBackoff
	}
	limit := l.MaxBackoff
	if limit <= 0 {
		limit = defaultMaxBackoff
	}
	limit = max(limit, wait)

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, limit)
	}
}

// release runs even when the caller's context is already cancelled.
func (l Locker) release(ctx context.Context, key, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	_ = releaseScript.Run(ctx, l.R, []string{key}, token).Err()
}
