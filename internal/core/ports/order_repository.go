package ports

import (
	"context"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update is a conditional (compare-and-swap) write. It applies only when the
	// stored order still matches aggregate.Revision(): same version, same status
	// and same outstanding courier. A lost race returns *errs.ObjectIsStaleError;
	// on success the aggregate's revision advances.
	//
	// Example:
	//   err := repo.Update(ctx, o)
	//   if errors.Is(err, errs.ErrObjectIsStale) {
	//       // another flow already moved the order on: no-op
	//   }
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllInStatus returns the orders currently in any of statuses, oldest first.
	GetAllInStatus(ctx context.Context, statuses ...order.Status) ([]*order.Order, error)
}
