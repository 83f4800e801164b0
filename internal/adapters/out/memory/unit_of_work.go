package memory

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/ports"
)

// ErrNoTransaction is returned by Commit and Rollback without a prior Begin.
var ErrNoTransaction = errors.New("no active transaction")

// UnitOfWork journals every write made while a transaction is active.
// One instance per business operation; instances are not safe for concurrent use.
type UnitOfWork struct {
	store  *Store
	active bool
	undo   []func()
}

// Begin is idempotent, like the gorm unit of work.
func (uow *UnitOfWork) Begin(_ context.Context) error {
	uow.active = true
	return nil
}

func (uow *UnitOfWork) Commit(_ context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	uow.active = false
	uow.undo = nil
	return nil
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoTransaction
	}
	uow.store.mu.Lock()
	for i := len(uow.undo) - 1; i >= 0; i-- {
		uow.undo[i]()
	}
	uow.store.mu.Unlock()

	uow.active = false
	uow.undo = nil
	return nil
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{store: uow.store, uow: uow}
}

func (uow *UnitOfWork) CourierRepository() ports.CourierRepository {
	return &CourierRepository{store: uow.store, uow: uow}
}

func (uow *UnitOfWork) CatalogRepository() ports.CatalogRepository {
	return &CatalogRepository{store: uow.store, uow: uow}
}

func (uow *UnitOfWork) AppointmentRepository() ports.AppointmentRepository {
	return &AppointmentRepository{store: uow.store, uow: uow}
}
