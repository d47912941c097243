package locking

import (
	"context"
	"sync"
	"time"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// MemoryLocker serializes keys within one process. Used when no Redis is
// configured. The ttl is ignored: holders live in this process and always
// release.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*memLock
	wait  time.Duration
}

type memLock struct {
	sem  chan struct{}
	refs int // holders plus waiters
}

var _ domainllm.Locker = (*MemoryLocker)(nil)

// NewMemoryLocker creates a locker that waits up to wait for a busy key.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*memLock),
		wait:  wait,
	}
}

// Acquire blocks until key is free, the wait budget runs out or ctx ends.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (domainllm.ReleaseFunc, error) {
	lock := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case lock.sem <- struct{}{}:
	case <-timer.C:
		l.unref(key)
		return nil, busyError(key)
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-lock.sem
			l.unref(key)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) ref(key string) *memLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &memLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	return lock
}

func (l *MemoryLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock := l.locks[key]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

// Len reports how many keys are held or awaited.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
