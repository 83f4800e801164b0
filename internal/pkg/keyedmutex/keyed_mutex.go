// Package keyedmutex serializes work per key (one user identifier, one lock)
// while letting different keys run in parallel.
package keyedmutex

import (
	"context"
	"hash/fnv"
	"sync"
)

const shardCount = 32

type heldKeysCtxKey struct{}

type entry struct {
	mu   sync.Mutex
	refs int
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Locker extends a key's lock to other processes sharing the same state.
// Lock blocks until the key is held or ctx ends; unlock releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Option configures a KeyedMutex.
type Option func(*KeyedMutex)

// WithLocker makes the outermost Do for a key also hold the key in l.
func WithLocker(l Locker) Option {
	return func(k *KeyedMutex) {
		k.remote = l
	}
}

// KeyedMutex hands out one mutex per key. Entries are reference counted and
// dropped once no goroutine holds or waits for them, so the map does not grow
// with the number of users ever seen. Without a Locker the lock only covers
// the current process.
type KeyedMutex struct {
	shards [shardCount]shard
	remote Locker
}

func New(opts ...Option) *KeyedMutex {
	k := &KeyedMutex{}
	for i := range k.shards {
		k.shards[i].entries = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Do runs fn while holding the lock for key. The context passed to fn records
// the key as held, so a nested Do for the same key on that context runs fn
// inline instead of deadlocking.
func (k *KeyedMutex) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if isHeld(ctx, key) {
		return fn(ctx)
	}

	e := k.acquire(key)
	e.mu.Lock()
	defer k.release(key, e)

	if k.remote != nil {
		unlock, err := k.remote.Lock(ctx, key)
		if err != nil {
			return err
		}
		defer unlock()
	}

	return fn(withHeld(ctx, key))
}

func (k *KeyedMutex) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &k.shards[h.Sum32()%shardCount]
}

func (k *KeyedMutex) acquire(key string) *entry {
	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	return e
}

func (k *KeyedMutex) release(key string, e *entry) {
	e.mu.Unlock()

	s := k.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
	}
}

func isHeld(ctx context.Context, key string) bool {
	held, _ := ctx.Value(heldKeysCtxKey{}).(map[string]struct{})
	_, ok := held[key]
	return ok
}

func withHeld(ctx context.Context, key string) context.Context {
	prev, _ := ctx.Value(heldKeysCtxKey{}).(map[string]struct{})
	next := make(map[string]struct{}, len(prev)+1)
	for k := range prev {
		next[k] = struct{}{}
	}
	next[key] = struct{}{}
	return context.WithValue(ctx, heldKeysCtxKey{}, next)
}
