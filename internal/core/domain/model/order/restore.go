package order

import (
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
)

// Snapshot is the persistence view of an Order. Repositories map their
// storage records to and from it; the domain never exposes its fields otherwise.
type Snapshot struct {
	ID              kernel.UUID
	CustomerID      string
	PharmacyID      kernel.UUID
	Lines           []Line
	Delivery        *kernel.GeoPoint
	PrescriptionRef string
	Fee             int64
	Status          Status
	CourierID       *kernel.UUID
	Attempts        []Attempt
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// Snapshot captures the current state of the order.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:              o.id,
		CustomerID:      o.customerID,
		PharmacyID:      o.pharmacyID,
		Lines:           o.Lines(),
		Delivery:        o.delivery,
		PrescriptionRef: o.prescriptionRef,
		Fee:             o.fee,
		Status:          o.status,
		CourierID:       o.courierID,
		Attempts:        o.Attempts(),
		CreatedAt:       o.createdAt,
		UpdatedAt:       o.updatedAt,
		Version:         o.version,
	}
}

// Restore rebuilds an Order loaded from storage. The snapshot's version,
// status and outstanding courier become the order's origin revision.
func Restore(s Snapshot) (*Order, error) {
	o := &Order{isConstructed: true}

	err := errors.Join(
		o.setID(s.ID),
		o.setCustomerID(s.CustomerID),
		o.setPharmacyID(s.PharmacyID),
		s.Status.Validate(),
	)
	for _, l := range s.Lines {
		err = errors.Join(err, l.Validate())
	}
	if s.CourierID != nil {
		err = errors.Join(err, s.CourierID.Validate())
	}
	if err != nil {
		return nil, err
	}

	o.lines = append([]Line(nil), s.Lines...)
	o.delivery = s.Delivery
	o.prescriptionRef = s.PrescriptionRef
	o.fee = s.Fee
	o.status = s.Status
	o.courierID = s.CourierID
	o.attempts = append([]Attempt(nil), s.Attempts...)
	o.createdAt = s.CreatedAt
	o.updatedAt = s.UpdatedAt
	o.MarkSaved(s.Version)
	return o, nil
}
