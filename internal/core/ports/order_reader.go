package ports

import (
	"context"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
)

// OrderSummary is the read model served to the admin API.
type OrderSummary struct {
	ID         kernel.UUID
	CustomerID string
	PharmacyID kernel.UUID
	Status     order.Status
	Total      int64
	CourierID  *kernel.UUID
	Attempts   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderReader serves queries without loading aggregates.
type OrderReader interface {
	// ListOrders returns orders in any of statuses, oldest first. No statuses means all.
	ListOrders(ctx context.Context, statuses []order.Status, limit int) ([]OrderSummary, error)
	// GetOrder returns *errs.ObjectNotFoundError for an unknown id.
	GetOrder(ctx context.Context, id kernel.UUID) (OrderSummary, error)
}
