package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sterling9879/Sage-IA/internal/domain"
	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

const (
	keyPrefix    = "sage:lock:"
	pollInterval = 50 * time.Millisecond
)

// Deletes the key only while it still holds our token, so an expired lock
// re-acquired by someone else is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every API instance pointed at the same
// Redis. Locks expire after their ttl if the holder dies.
type RedisLocker struct {
	client redis.UniversalClient
	wait   time.Duration
}

var _ domainllm.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker that waits up to wait for a busy key.
func NewRedisLocker(client redis.UniversalClient, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, wait: wait}
}

// Acquire polls SET NX until the key is free or the wait budget runs out.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (domainllm.ReleaseFunc, error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}

		if time.Now().After(deadline) {
			return nil, busyError(key)
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) releaser(redisKey, token string) domainllm.ReleaseFunc {
	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release lock: %w", err)
		}
		return nil
	}
}

func busyError(key string) error {
	return &domain.ConflictError{
		Message:      "another message is being processed for this conversation",
		ResourceType: "conversation",
		ResourceID:   key,
	}
}
