// Package workflow coordinates the three-party order protocol on top of the
// command handlers: cart assembly, prescription validation and courier
// assignment. Coordinators send their own notifications through the
// messenger; callers only map returned validation errors to replies.
package workflow

import (
	"context"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/keyedmutex"
)

// Conversations serializes read-modify-write cycles on conversation state.
// The dispatcher holds the sender's lock while handling an event; a
// coordinator that must touch another user's state (a pharmacy approving a
// customer's prescription) goes through Update, which takes that user's lock.
// Locks are re-entrant per context.
type Conversations struct {
	store ports.ConversationStore
	locks *keyedmutex.KeyedMutex
	now   func() time.Time
}

func NewConversations(store ports.ConversationStore, locks *keyedmutex.KeyedMutex, now func() time.Time) *Conversations {
	if now == nil {
		now = time.Now
	}
	return &Conversations{store: store, locks: locks, now: now}
}

// Update loads userID's state, applies fn and stores the result. Nothing is
// stored when fn fails.
func (c *Conversations) Update(
	ctx context.Context, userID string, fn func(ctx context.Context, state *conversation.State) error,
) error {
	return c.locks.Do(ctx, userID, func(ctx context.Context) error {
		state, err := c.store.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("load conversation: %w", err)
		}
		if err = fn(ctx, &state); err != nil {
			return err
		}
		state.Touch(c.now())
		if err = c.store.Set(ctx, userID, state); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		return nil
	})
}

// Lock runs fn while holding userID's lock without loading state.
func (c *Conversations) Lock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	return c.locks.Do(ctx, userID, fn)
}

// Count is the number of stored conversations.
func (c *Conversations) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}
