package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/observability"
)

// NewConversationEvictionJob removes conversations idle for longer than idle
// and refreshes the active conversations gauge. When the store expires
// entries itself (Redis, Mongo TTL), only the gauge is refreshed.
func NewConversationEvictionJob(
	store ports.ConversationStore, idle, every time.Duration, now func() time.Time, logger *slog.Logger,
) *Job {
	evicter, _ := store.(ports.IdleEvicter)

	return NewJob("conversation_eviction", every, func(ctx context.Context) (int, error) {
		evicted := 0
		if evicter != nil {
			n, err := evicter.EvictIdle(ctx, now().Add(-idle))
			if err != nil {
				return 0, fmt.Errorf("evict idle conversations: %w", err)
			}
			evicted = n
		}

		count, err := store.Count(ctx)
		if err != nil {
			return evicted, fmt.Errorf("count conversations: %w", err)
		}
		observability.ActiveConversations.Set(float64(count))
		return evicted, nil
	}, logger)
}
