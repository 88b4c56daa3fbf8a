package dispatch

import (
	"context"
	"time"

	"autodialer/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Limiter bounds bulk-dispatch fan-out. Concurrency here is an optimization,
// not a correctness requirement: each record's store transition is
// independently atomic.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context)
}

// ChanLimiter is a process-local semaphore.
type ChanLimiter struct {
	slots chan struct{}
}

func NewChanLimiter(limit int) *ChanLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &ChanLimiter{slots: make(chan struct{}, limit)}
}

func (l *ChanLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ChanLimiter) Release(_ context.Context) {
	<-l.slots
}

// RedisLimiter caps in-flight provider calls across processes using the
// shared concurrency-cap scripts. The TTL covers a slot leaked by a crashed
// process.
type RedisLimiter struct {
	rdb   *redis.Client
	key   string
	limit int
	ttl   time.Duration

	pollInterval time.Duration
}

func NewRedisLimiter(rdb *redis.Client, key string, limit int, ttl time.Duration) *RedisLimiter {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisLimiter{
		rdb:          rdb,
		key:          key,
		limit:        limit,
		ttl:          ttl,
		pollInterval: 100 * time.Millisecond,
	}
}

func (l *RedisLimiter) Acquire(ctx context.Context) error {
	for {
		ok, err := utils.AcquireConcurrencyCap(ctx, l.rdb, l.key, l.limit, l.ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *RedisLimiter) Release(ctx context.Context) {
	// Best-effort; the TTL reclaims the slot if this fails.
	_ = utils.ReleaseConcurrencyCap(ctx, l.rdb, l.key)
}
