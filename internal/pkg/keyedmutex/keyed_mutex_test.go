package keyedmutex_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pharmadelivery/internal/pkg/keyedmutex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := keyedmutex.New()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = k.Do(t.Context(), "2250700000001", func(context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestKeyedMutex_DifferentKeysRunInParallel(t *testing.T) {
	k := keyedmutex.New()
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = k.Do(t.Context(), "customer", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = k.Do(t.Context(), "pharmacy", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another key blocked")
	}
	close(release)
}

func TestKeyedMutex_ReentrantOnSameContext(t *testing.T) {
	k := keyedmutex.New()
	calls := 0

	err := k.Do(t.Context(), "user", func(ctx context.Context) error {
		calls++
		return k.Do(ctx, "user", func(context.Context) error {
			calls++
			return nil
		})
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

// sharedLocker stands in for a lock service reachable from several processes.
type sharedLocker struct {
	mu     sync.Mutex
	slots  map[string]chan struct{}
	locks  atomic.Int32
	failed error
}

func newSharedLocker() *sharedLocker {
	return &sharedLocker{slots: make(map[string]chan struct{})}
}

func (l *sharedLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.failed != nil {
		return nil, l.failed
	}
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	l.locks.Add(1)
	return func() { <-slot }, nil
}

func TestKeyedMutex_LockerSerializesAcrossInstances(t *testing.T) {
	locker := newSharedLocker()
	replicas := []*keyedmutex.KeyedMutex{
		keyedmutex.New(keyedmutex.WithLocker(locker)),
		keyedmutex.New(keyedmutex.WithLocker(locker)),
	}

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = replicas[i%2].Do(t.Context(), "2250700000001", func(context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, int32(20), locker.locks.Load())
}

func TestKeyedMutex_LockerTakenOncePerOutermostDo(t *testing.T) {
	locker := newSharedLocker()
	k := keyedmutex.New(keyedmutex.WithLocker(locker))

	err := k.Do(t.Context(), "user", func(ctx context.Context) error {
		return k.Do(ctx, "user", func(context.Context) error { return nil })
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), locker.locks.Load())
}

func TestKeyedMutex_LockerFailureSkipsWork(t *testing.T) {
	locker := newSharedLocker()
	locker.failed = errors.New("redis unavailable")
	k := keyedmutex.New(keyedmutex.WithLocker(locker))
	called := false

	err := k.Do(t.Context(), "user", func(context.Context) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, locker.failed)
	assert.False(t, called)

	// the local lock was released
	locker.failed = nil
	require.NoError(t, k.Do(t.Context(), "user", func(context.Context) error { return nil }))
}
