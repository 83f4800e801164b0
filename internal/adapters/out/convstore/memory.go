package convstore

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/ports"
)

const memoryShards = 16

type memoryShard struct {
	mu     sync.RWMutex
	states map[string]conversation.State
}

// MemoryStore keeps conversations in process, sharded by user to keep lock
// contention low. It has no native expiry; a job calls EvictIdle.
type MemoryStore struct {
	shards [memoryShards]memoryShard
}

var (
	_ ports.ConversationStore = (*MemoryStore)(nil)
	_ ports.IdleEvicter       = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i].states = make(map[string]conversation.State)
	}
	return s
}

func (s *MemoryStore) shardFor(userID string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.shards[h.Sum32()%memoryShards]
}

func (s *MemoryStore) Get(_ context.Context, userID string) (conversation.State, error) {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	state, ok := sh.states[userID]
	if !ok {
		return conversation.NewState(userID), nil
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, userID string, state conversation.State) error {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.states[userID] = state.Clone()
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.states)
		sh.mu.RUnlock()
	}
	return n, nil
}

func (s *MemoryStore) EvictIdle(ctx context.Context, cutoff time.Time) (int, error) {
	evicted := 0
	for i := range s.shards {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		sh := &s.shards[i]
		sh.mu.Lock()
		for userID, state := range sh.states {
			if state.UpdatedAt.Before(cutoff) {
				delete(sh.states, userID)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted, nil
}
