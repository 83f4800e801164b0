// Package ports defines the contracts between the core and its collaborators:
// repositories and the unit of work over the document store, the conversation
// store, the messaging transport, the language model and text recognition.
package ports

import (
	"context"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier aggregates.
type CourierRepository interface {
	// Add persists a new courier aggregate to storage.
	Add(ctx context.Context, courier *courier.Courier) error

	// Update persists changes to an existing courier aggregate.
	Update(ctx context.Context, courier *courier.Courier) error

	// Get retrieves a courier aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetByPhone finds the courier behind a messaging address; button replies
	// are matched to couriers this way.
	GetByPhone(ctx context.Context, phone string) (*courier.Courier, error)

	// GetAllVerified returns at most limit verified couriers in registration
	// order, busy or not. It is the candidate list an order is exhausted against.
	GetAllVerified(ctx context.Context, limit int) ([]*courier.Courier, error)

	// GetAllFree returns at most limit verified couriers that can take a new offer.
	// A courier is free when:
	//   - it holds no order in COURIER_ASSIGNED or EN_ROUTE
	//   - it holds no outstanding offer on any PENDING_COURIER order
	//
	// Example:
	//   free, err := repo.GetAllFree(ctx, 0)
	//   if len(free) == 0 {
	//       return ErrNoCourierAvailable
	//   }
	GetAllFree(ctx context.Context, limit int) ([]*courier.Courier, error)
}
