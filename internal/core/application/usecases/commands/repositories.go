// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler asks only for the repositories it touches.
type (
	// TxManager handles transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// CourierRepoFactory provides access to courier repository within a transaction.
	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	// CatalogRepoFactory provides access to the catalog within a transaction.
	CatalogRepoFactory interface {
		CatalogRepository() ports.CatalogRepository
	}

	// AppointmentRepoFactory provides access to appointments within a transaction.
	AppointmentRepoFactory interface {
		AppointmentRepository() ports.AppointmentRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// OrderCatalogUoW is used by commands that read the catalog while writing
	// an order, e.g. checkout decrementing stock.
	OrderCatalogUoW interface {
		TxManager
		OrderRepoFactory
		CatalogRepoFactory
	}

	// OrderCatalogUoWFactory creates new OrderCatalogUoW instances.
	OrderCatalogUoWFactory interface {
		Create() OrderCatalogUoW
	}

	// CourierUoW manages transactions for courier-only operations.
	CourierUoW interface {
		TxManager
		CourierRepoFactory
	}

	// CourierUoWFactory creates new courier unit of work instances.
	CourierUoWFactory interface {
		Create() CourierUoW
	}

	// AppointmentUoW manages appointment bookings.
	AppointmentUoW interface {
		TxManager
		CatalogRepoFactory
		AppointmentRepoFactory
	}

	// AppointmentUoWFactory creates new appointment unit of work instances.
	AppointmentUoWFactory interface {
		Create() AppointmentUoW
	}

	// UoW manages transactions across orders, couriers and the catalog.
	// Used by courier assignment, which coordinates all three.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orderRepo := uow.OrderRepository()
	//   courierRepo := uow.CourierRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		CourierRepoFactory
		OrderRepoFactory
		CatalogRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)

// IsLostRace reports whether err means another flow changed the order first.
// Callers treat such errors as no-ops.
func IsLostRace(err error) bool {
	return errors.Is(err, errs.ErrObjectIsStale) || errors.Is(err, ErrOfferNoLongerValid)
}
