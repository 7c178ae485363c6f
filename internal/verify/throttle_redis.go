package verify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "verify:failures:"

// RedisThrottle shares the failure window across instances. Failures live in
// a sorted set scored by timestamp; counting prunes the slid-out portion
// first, so the window is exact rather than bucketed.
type RedisThrottle struct {
	client      *redis.Client
	maxFailures int
	window      time.Duration
}

func NewRedisThrottle(client *redis.Client, maxFailures int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{client: client, maxFailures: maxFailures, window: window}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := throttleKeyPrefix + key
	cutoff := time.Now().Add(-t.window).UnixNano()

	if err := t.client.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return false, fmt.Errorf("prune throttle window: %w", err)
	}
	count, err := t.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("count throttle window: %w", err)
	}
	return count < int64(t.maxFailures), nil
}

func (t *RedisThrottle) RecordFailure(ctx context.Context, key string) error {
	redisKey := throttleKeyPrefix + key
	now := time.Now().UnixNano()

	pipe := t.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now), Member: strconv.FormatInt(now, 10)})
	pipe.Expire(ctx, redisKey, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record throttle failure: %w", err)
	}
	return nil
}

func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, throttleKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset throttle window: %w", err)
	}
	return nil
}
