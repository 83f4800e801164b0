package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"
)

type CatalogRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *CatalogRepository) GetPharmacy(_ context.Context, id kernel.UUID) (catalog.Pharmacy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.pharmacies[id]
	if !ok {
		return catalog.Pharmacy{}, errs.NewObjectNotFoundError("pharmacy", id.String())
	}
	return p, nil
}

func (r *CatalogRepository) ListPharmacies(_ context.Context, filter ports.PharmacyFilter) ([]catalog.Pharmacy, error) {
	r.store.mu.Lock()
	out := make([]catalog.Pharmacy, 0, len(r.store.pharmacies))
	for _, p := range r.store.pharmacies {
		if filter.OnDutyOnly && !p.OnDuty || filter.OpenOnly && !p.Open {
			continue
		}
		out = append(out, p)
	}
	r.store.mu.Unlock()

	slices.SortFunc(out, func(a, b catalog.Pharmacy) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *CatalogRepository) UpsertPharmacy(_ context.Context, pharmacy catalog.Pharmacy) error {
	if err := pharmacy.Validate(); err != nil {
		return err
	}
	upsert(r.store, r.uow, r.store.pharmacies, pharmacy.ID, pharmacy)
	return nil
}

func (r *CatalogRepository) GetMedicine(_ context.Context, id kernel.UUID) (catalog.Medicine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.medicines[id]
	if !ok {
		return catalog.Medicine{}, errs.NewObjectNotFoundError("medicine", id.String())
	}
	return m, nil
}

func (r *CatalogRepository) SearchMedicines(_ context.Context, query string, limit int) ([]catalog.Medicine, error) {
	r.store.mu.Lock()
	out := make([]catalog.Medicine, 0)
	for _, m := range r.store.medicines {
		if m.Stock > 0 && m.Matches(query) {
			out = append(out, m)
		}
	}
	r.store.mu.Unlock()

	slices.SortFunc(out, func(a, b catalog.Medicine) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Price, b.Price))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *CatalogRepository) UpsertMedicine(_ context.Context, medicine catalog.Medicine) error {
	if err := medicine.Validate(); err != nil {
		return err
	}
	medicine.Aliases = append([]string(nil), medicine.Aliases...)
	upsert(r.store, r.uow, r.store.medicines, medicine.ID, medicine)
	return nil
}

// DecrementStock is conditional on stock >= quantity.
func (r *CatalogRepository) DecrementStock(_ context.Context, medicineID kernel.UUID, quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, nil)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.medicines[medicineID]
	if !ok {
		return errs.NewObjectNotFoundError("medicine", medicineID.String())
	}
	if m.Stock < quantity {
		return errs.NewObjectIsStaleError("medicine stock", fmt.Sprintf("%s (%d left)", medicineID, m.Stock))
	}

	m.Stock -= quantity
	s.medicines[medicineID] = m
	s.journal(r.uow, func() {
		if cur, ok := s.medicines[medicineID]; ok {
			cur.Stock += quantity
			s.medicines[medicineID] = cur
		}
	})
	return nil
}

func (r *CatalogRepository) GetDoctor(_ context.Context, id kernel.UUID) (catalog.Doctor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	d, ok := r.store.doctors[id]
	if !ok {
		return catalog.Doctor{}, errs.NewObjectNotFoundError("doctor", id.String())
	}
	return d, nil
}

func (r *CatalogRepository) ListDoctors(_ context.Context, limit int) ([]catalog.Doctor, error) {
	r.store.mu.Lock()
	out := make([]catalog.Doctor, 0, len(r.store.doctors))
	for _, d := range r.store.doctors {
		out = append(out, d)
	}
	r.store.mu.Unlock()

	slices.SortFunc(out, func(a, b catalog.Doctor) int { return cmp.Compare(a.Name, b.Name) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *CatalogRepository) UpsertDoctor(_ context.Context, doctor catalog.Doctor) error {
	if err := doctor.Validate(); err != nil {
		return err
	}
	upsert(r.store, r.uow, r.store.doctors, doctor.ID, doctor)
	return nil
}

// upsert writes value under key and journals the previous value, or its absence.
func upsert[T any](s *Store, uow *UnitOfWork, m map[kernel.UUID]T, key kernel.UUID, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := m[key]
	m[key] = value
	s.journal(uow, func() {
		if existed {
			m[key] = prev
			return
		}
		delete(m, key)
	})
}

type AppointmentRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *AppointmentRepository) Add(_ context.Context, a *appointment.Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id := a.ID()
	if _, ok := s.appointments[id]; ok {
		return errs.NewValueIsInvalidErrorWithCause("appointment", fmt.Errorf("%s already exists", id))
	}
	s.appointments[id] = a
	s.journal(r.uow, func() { delete(s.appointments, id) })
	return nil
}

// Appointments returns the recorded appointments of customerID.
func (s *Store) Appointments(customerID string) []*appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*appointment.Appointment, 0)
	for _, a := range s.appointments {
		if a.CustomerID() == customerID {
			out = append(out, a)
		}
	}
	return out
}
