package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-minimart-pos/internal/apperr"
)

// Redis locks keys across server instances with bsm/redislock
type Redis struct {
	client  *redislock.Client
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
	log     *zap.Logger
}

func NewRedis(rdb *redis.Client, ttl, wait, backoff time.Duration, log *zap.Logger) *Redis {
	return &Redis{
		client:  redislock.New(rdb),
		ttl:     ttl,
		wait:    wait,
		backoff: backoff,
		log:     log.Named("lock"),
	}
}

func (r *Redis) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = Normalize(keys)
	obtainCtx := ctx
	if r.wait > 0 {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}
	opts := &redislock.Options{RetryStrategy: redislock.LinearBackoff(r.backoff)}

	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.log.Warn("failed to release lock", zap.String("key", held[i].Key()), zap.Error(err))
			}
		}
	}

	for _, k := range keys {
		l, err := r.client.Obtain(obtainCtx, "lock:"+k, r.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, apperr.ErrLocked.With("key", k)
			}
			return nil, err
		}
		held = append(held, l)
	}
	return releaseOnce(release), nil
}
