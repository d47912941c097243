package locking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sterling9879/Sage-IA/internal/domain"
)

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	l := NewMemoryLocker(5 * time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "conv-1", time.Minute)
			if !assert.NoError(t, err) {
				return
			}

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)

			assert.NoError(t, release(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, l.Len())
}

func TestMemoryLocker_DifferentKeysIndependent(t *testing.T) {
	l := NewMemoryLocker(10 * time.Millisecond)

	r1, err := l.Acquire(context.Background(), "a", time.Minute)
	require.NoError(t, err)
	r2, err := l.Acquire(context.Background(), "b", time.Minute)
	require.NoError(t, err)

	require.NoError(t, r1(context.Background()))
	require.NoError(t, r2(context.Background()))
}

func TestMemoryLocker_BusyAfterWait(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "conv-1", time.Minute)
	require.NoError(t, err)
	defer release(context.Background())

	_, err = l.Acquire(context.Background(), "conv-1", time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "conv-1", conflict.ResourceID)
}

func TestMemoryLocker_ReleaseIsIdempotent(t *testing.T) {
	l := NewMemoryLocker(20 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()))

	again, err := l.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}

func TestMemoryLocker_ContextCanceled(t *testing.T) {
	l := NewMemoryLocker(time.Second)

	release, err := l.Acquire(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
