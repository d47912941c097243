package llm

import (
	"context"
	"time"
)

// ReleaseFunc releases a held lock. Safe to call once.
type ReleaseFunc func(ctx context.Context) error

// Locker serializes work on a key across requests (and instances, when
// backed by a shared store). Acquire waits until the lock is free or the
// implementation's wait budget runs out, then returns a *domain.ConflictError.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}
