package ports

import (
	"context"
	"time"

	"pharmadelivery/internal/core/domain/model/conversation"
)

// ConversationStore keeps one conversation.State per user. Callers
// read-modify-write the whole value; there are no partial updates.
type ConversationStore interface {
	// Get returns the stored state, or conversation.NewState(userID) when absent.
	Get(ctx context.Context, userID string) (conversation.State, error)
	// Set replaces the stored state of userID.
	Set(ctx context.Context, userID string, state conversation.State) error
	// Count returns the number of stored conversations.
	Count(ctx context.Context) (int, error)
}

// IdleEvicter is implemented by stores without native expiry.
type IdleEvicter interface {
	// EvictIdle removes conversations last updated before cutoff and returns how many were removed.
	EvictIdle(ctx context.Context, cutoff time.Time) (int, error)
}

// EventDeduplicator filters duplicate webhook deliveries.
type EventDeduplicator interface {
	// FirstSeen records eventID and reports whether it had not been seen before.
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}
