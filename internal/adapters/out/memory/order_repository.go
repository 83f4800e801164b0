package memory

import (
	"context"
	"fmt"
	"slices"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"
)

type OrderRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := aggregate.ID()
	if _, ok := s.orders[id]; ok {
		return errs.NewValueIsInvalidErrorWithCause("order", fmt.Errorf("%s already exists", id))
	}

	snap := copySnapshot(aggregate.Snapshot())
	snap.Version = 1
	s.orders[id] = snap
	s.orderSeq = append(s.orderSeq, id)
	s.journal(r.uow, func() {
		delete(s.orders, id)
		s.orderSeq = slices.DeleteFunc(s.orderSeq, id.IsEqual)
	})

	aggregate.MarkSaved(1)
	return nil
}

// Update applies only when the stored order still matches aggregate.Revision().
func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := aggregate.ID()
	stored, ok := s.orders[id]
	if !ok {
		return errs.NewObjectNotFoundError("order", id.String())
	}

	rev := aggregate.Revision()
	if stored.Version != rev.Version ||
		stored.Status != rev.Status ||
		!sameCourier(outstandingCourier(stored), rev.OfferedCourierID) {
		return errs.NewObjectIsStaleError("order", id.String())
	}

	next := copySnapshot(aggregate.Snapshot())
	next.Version = stored.Version + 1
	s.orders[id] = next
	s.journal(r.uow, func() {
		// skip when a later write replaced this version
		if cur, ok := s.orders[id]; ok && cur.Version == next.Version {
			s.orders[id] = stored
		}
	})

	aggregate.MarkSaved(next.Version)
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	stored, ok := r.store.orders[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}

	return order.Restore(copySnapshot(stored))
}

func (r *OrderRepository) GetAllInStatus(_ context.Context, statuses ...order.Status) ([]*order.Order, error) {
	snaps := r.store.snapshots(statuses)

	orders := make([]*order.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, err := order.Restore(snap)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// snapshots returns copies of the orders in any of statuses (all when empty), oldest first.
func (s *Store) snapshots(statuses []order.Status) []order.Snapshot {
	s.mu.Lock()
	out := make([]order.Snapshot, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		snap := s.orders[id]
		if len(statuses) == 0 || slices.Contains(statuses, snap.Status) {
			out = append(out, copySnapshot(snap))
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b order.Snapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// OrderReader serves the admin queries straight from stored snapshots.
type OrderReader struct {
	store *Store
}

func NewOrderReader(store *Store) *OrderReader {
	return &OrderReader{store: store}
}

var _ ports.OrderReader = (*OrderReader)(nil)

func (r *OrderReader) ListOrders(_ context.Context, statuses []order.Status, limit int) ([]ports.OrderSummary, error) {
	snaps := r.store.snapshots(statuses)
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	out := make([]ports.OrderSummary, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, summarize(snap))
	}
	return out, nil
}

func (r *OrderReader) GetOrder(_ context.Context, id kernel.UUID) (ports.OrderSummary, error) {
	r.store.mu.Lock()
	snap, ok := r.store.orders[id]
	r.store.mu.Unlock()
	if !ok {
		return ports.OrderSummary{}, errs.NewObjectNotFoundError("order", id.String())
	}
	return summarize(snap), nil
}

func summarize(s order.Snapshot) ports.OrderSummary {
	total := s.Fee
	for _, l := range s.Lines {
		total += l.Amount()
	}
	return ports.OrderSummary{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		PharmacyID: s.PharmacyID,
		Status:     s.Status,
		Total:      total,
		CourierID:  s.CourierID,
		Attempts:   len(s.Attempts),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
