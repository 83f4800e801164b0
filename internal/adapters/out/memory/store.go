// Package memory is an in-process document store. It implements the same
// repositories and unit of work as the postgres adapter and backs local runs
// (STORE_BACKEND=memory) and the workflow tests.
//
// Writes are applied to the store immediately and recorded in the unit of
// work's undo journal; Rollback replays the journal backwards. Stock undo
// steps add the decrement back rather than restoring the old record, and an
// order is only restored while it still holds the rolled back version, so a
// rollback never erases what another unit of work wrote meanwhile. Order updates
// are compare-and-swap on the origin revision, exactly like the SQL adapter,
// so concurrent flows racing on one order see the same lost-race errors.
package memory

import (
	"sync"

	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
)

type courierRecord struct {
	ID       kernel.UUID
	Name     string
	Phone    string
	Verified bool
	Location *kernel.GeoPoint
}

// Store holds every collection. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	orders     map[kernel.UUID]order.Snapshot
	orderSeq   []kernel.UUID
	couriers   map[kernel.UUID]courierRecord
	courierSeq []kernel.UUID

	pharmacies   map[kernel.UUID]catalog.Pharmacy
	medicines    map[kernel.UUID]catalog.Medicine
	doctors      map[kernel.UUID]catalog.Doctor
	appointments map[kernel.UUID]*appointment.Appointment
}

func NewStore() *Store {
	return &Store{
		orders:       make(map[kernel.UUID]order.Snapshot),
		couriers:     make(map[kernel.UUID]courierRecord),
		pharmacies:   make(map[kernel.UUID]catalog.Pharmacy),
		medicines:    make(map[kernel.UUID]catalog.Medicine),
		doctors:      make(map[kernel.UUID]catalog.Doctor),
		appointments: make(map[kernel.UUID]*appointment.Appointment),
	}
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// Reader returns the order read model over the same store.
func (f *UnitOfWorkFactory) Reader() *OrderReader {
	return NewOrderReader(f.store)
}

// journal records undo steps. Outside a transaction writes are final.
func (s *Store) journal(uow *UnitOfWork, undo func()) {
	if uow != nil && uow.active {
		uow.undo = append(uow.undo, undo)
	}
}

func copySnapshot(s order.Snapshot) order.Snapshot {
	s.Lines = append([]order.Line(nil), s.Lines...)
	s.Attempts = append([]order.Attempt(nil), s.Attempts...)
	if s.Delivery != nil {
		d := *s.Delivery
		s.Delivery = &d
	}
	if s.CourierID != nil {
		id := *s.CourierID
		s.CourierID = &id
	}
	return s
}

// outstandingCourier mirrors order.Order.OutstandingCourier on a stored snapshot.
func outstandingCourier(s order.Snapshot) *kernel.UUID {
	if len(s.Attempts) == 0 {
		return nil
	}
	last := s.Attempts[len(s.Attempts)-1]
	if !last.IsOutstanding() {
		return nil
	}
	id := last.CourierID
	return &id
}

func sameCourier(a, b *kernel.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.IsEqual(*b)
}
