package memory

import (
	"context"
	"fmt"
	"slices"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/errs"
)

type CourierRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *CourierRepository) Add(_ context.Context, c *courier.Courier) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.ID()
	if _, ok := s.couriers[id]; ok {
		return errs.NewValueIsInvalidErrorWithCause("courier", fmt.Errorf("%s already exists", id))
	}
	if _, ok := s.courierByPhone(c.Phone()); ok {
		return errs.NewValueIsInvalidErrorWithCause("courier phone", fmt.Errorf("%s is already registered", c.Phone()))
	}

	s.couriers[id] = fromCourier(c)
	s.courierSeq = append(s.courierSeq, id)
	s.journal(r.uow, func() {
		delete(s.couriers, id)
		s.courierSeq = slices.DeleteFunc(s.courierSeq, id.IsEqual)
	})
	return nil
}

func (r *CourierRepository) Update(_ context.Context, c *courier.Courier) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.ID()
	prev, ok := s.couriers[id]
	if !ok {
		return errs.NewObjectNotFoundError("courier", id.String())
	}

	s.couriers[id] = fromCourier(c)
	s.journal(r.uow, func() { s.couriers[id] = prev })
	return nil
}

func (r *CourierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	rec, ok := r.store.couriers[id]
	r.store.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id.String())
	}
	return rec.toDomain()
}

func (r *CourierRepository) GetByPhone(_ context.Context, phone string) (*courier.Courier, error) {
	r.store.mu.Lock()
	rec, ok := r.store.courierByPhone(phone)
	r.store.mu.Unlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", phone)
	}
	return rec.toDomain()
}

func (r *CourierRepository) GetAllVerified(_ context.Context, limit int) ([]*courier.Courier, error) {
	s := r.store
	s.mu.Lock()
	records := make([]courierRecord, 0)
	for _, id := range s.courierSeq {
		rec := s.couriers[id]
		if !rec.Verified {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	s.mu.Unlock()
	return recordsToDomain(records)
}

// GetAllFree returns verified couriers in registration order, skipping those
// holding an active delivery or an outstanding offer.
func (r *CourierRepository) GetAllFree(_ context.Context, limit int) ([]*courier.Courier, error) {
	s := r.store
	s.mu.Lock()

	busy := make(map[kernel.UUID]bool)
	for _, snap := range s.orders {
		switch snap.Status {
		case order.CourierAssigned, order.EnRoute:
			if snap.CourierID != nil {
				busy[*snap.CourierID] = true
			}
		case order.PendingCourier:
			if id := outstandingCourier(snap); id != nil {
				busy[*id] = true
			}
		}
	}

	records := make([]courierRecord, 0)
	for _, id := range s.courierSeq {
		rec := s.couriers[id]
		if !rec.Verified || busy[id] {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	s.mu.Unlock()
	return recordsToDomain(records)
}

func recordsToDomain(records []courierRecord) ([]*courier.Courier, error) {
	out := make([]*courier.Courier, 0, len(records))
	for _, rec := range records {
		c, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) courierByPhone(phone string) (courierRecord, bool) {
	for _, rec := range s.couriers {
		if rec.Phone == phone {
			return rec, true
		}
	}
	return courierRecord{}, false
}

func fromCourier(c *courier.Courier) courierRecord {
	rec := courierRecord{
		ID:       c.ID(),
		Name:     c.Name(),
		Phone:    c.Phone(),
		Verified: c.IsVerified(),
	}
	if loc := c.Location(); loc != nil {
		l := *loc
		rec.Location = &l
	}
	return rec
}

func (rec courierRecord) toDomain() (*courier.Courier, error) {
	return courier.RestoreCourier(rec.ID, rec.Name, rec.Phone, rec.Verified, rec.Location)
}
