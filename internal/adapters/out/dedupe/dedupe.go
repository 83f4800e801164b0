// Package dedupe filters webhook deliveries the messaging platform retries.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pharmadelivery/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "webhook:event:"

// Redis records event ids with SETNX, shared by every replica.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ ports.EventDeduplicator = (*Redis)(nil)

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (d *Redis) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, redisKeyPrefix+eventID, "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record event id: %w", err)
	}
	return ok, nil
}

// Memory remembers event ids for ttl in process.
type Memory struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

var _ ports.EventDeduplicator = (*Memory)(nil)

func NewMemory(ttl time.Duration, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{seen: make(map[string]time.Time), ttl: ttl, now: now}
}

func (d *Memory) FirstSeen(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expires, ok := d.seen[eventID]; ok && now.Before(expires) {
		return false, nil
	}
	d.seen[eventID] = now.Add(d.ttl)
	return true, nil
}

// Prune drops expired ids and returns how many were dropped.
func (d *Memory) Prune(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	pruned := 0
	for id, expires := range d.seen {
		if !now.Before(expires) {
			delete(d.seen, id)
			pruned++
		}
	}
	return pruned, nil
}
