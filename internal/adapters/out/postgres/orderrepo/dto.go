// Package orderrepo persists order aggregates. Lines and offer attempts are
// stored as jsonb on the order row; the outstanding courier is denormalized
// into its own column so the conditional update and the free-courier query
// can filter on it.
package orderrepo

import (
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of the orders table.
type OrderDTO struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey"`
	CustomerID       string       `gorm:"type:varchar(32);not null;index"`
	PharmacyID       uuid.UUID    `gorm:"type:uuid;not null"`
	Lines            []LineDTO    `gorm:"type:jsonb;serializer:json;not null"`
	DeliveryLat      *float64     `gorm:"type:double precision"`
	DeliveryLng      *float64     `gorm:"type:double precision"`
	PrescriptionRef  string       `gorm:"type:varchar(255)"`
	Fee              int64        `gorm:"type:bigint;not null"`
	Status           string       `gorm:"type:varchar(32);not null;index"`
	CourierID        *uuid.UUID   `gorm:"type:uuid;index"`
	OfferedCourierID *uuid.UUID   `gorm:"type:uuid;index"`
	Attempts         []AttemptDTO `gorm:"type:jsonb;serializer:json;not null"`
	Version          int64        `gorm:"type:bigint;not null"`
	CreatedAt        time.Time    `gorm:"not null;index"`
	UpdatedAt        time.Time    `gorm:"not null"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type LineDTO struct {
	MedicineID           uuid.UUID `json:"medicine_id"`
	Name                 string    `json:"name"`
	Quantity             int       `json:"quantity"`
	UnitPrice            int64     `json:"unit_price"`
	RequiresPrescription bool      `json:"requires_prescription"`
}

type AttemptDTO struct {
	CourierID  uuid.UUID  `json:"courier_id"`
	OfferedAt  time.Time  `json:"offered_at"`
	Outcome    string     `json:"outcome"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	lines := make([]LineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, LineDTO{
			MedicineID:           l.MedicineID.Bytes(),
			Name:                 l.Name,
			Quantity:             l.Quantity,
			UnitPrice:            l.UnitPrice,
			RequiresPrescription: l.RequiresPrescription,
		})
	}

	attempts := make([]AttemptDTO, 0, len(s.Attempts))
	for _, a := range s.Attempts {
		attempts = append(attempts, AttemptDTO{
			CourierID:  a.CourierID.Bytes(),
			OfferedAt:  a.OfferedAt,
			Outcome:    a.Outcome.String(),
			ResolvedAt: a.ResolvedAt,
		})
	}

	dto := OrderDTO{
		ID:               s.ID.Bytes(),
		CustomerID:       s.CustomerID,
		PharmacyID:       s.PharmacyID.Bytes(),
		Lines:            lines,
		PrescriptionRef:  s.PrescriptionRef,
		Fee:              s.Fee,
		Status:           s.Status.String(),
		CourierID:        rawID(s.CourierID),
		OfferedCourierID: rawID(o.OutstandingCourier()),
		Attempts:         attempts,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
	if s.Delivery != nil {
		lat, lng := s.Delivery.Lat(), s.Delivery.Lng()
		dto.DeliveryLat, dto.DeliveryLng = &lat, &lng
	}
	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	snap, err := toSnapshot(dto)
	if err != nil {
		return nil, err
	}
	return order.Restore(snap)
}

func toSnapshot(dto OrderDTO) (order.Snapshot, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.Snapshot{}, err
	}
	pharmacyID, err := kernel.UUIDFromBytes(dto.PharmacyID[:])
	if err != nil {
		return order.Snapshot{}, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return order.Snapshot{}, err
	}
	courierID, err := domainID(dto.CourierID)
	if err != nil {
		return order.Snapshot{}, err
	}

	lines := make([]order.Line, 0, len(dto.Lines))
	for _, l := range dto.Lines {
		medicineID, lineErr := kernel.UUIDFromBytes(l.MedicineID[:])
		if lineErr != nil {
			return order.Snapshot{}, lineErr
		}
		lines = append(lines, order.Line{
			MedicineID:           medicineID,
			Name:                 l.Name,
			Quantity:             l.Quantity,
			UnitPrice:            l.UnitPrice,
			RequiresPrescription: l.RequiresPrescription,
		})
	}

	attempts := make([]order.Attempt, 0, len(dto.Attempts))
	for _, a := range dto.Attempts {
		cid, attemptErr := kernel.UUIDFromBytes(a.CourierID[:])
		if attemptErr != nil {
			return order.Snapshot{}, attemptErr
		}
		outcome, attemptErr := order.ParseAttemptOutcome(a.Outcome)
		if attemptErr != nil {
			return order.Snapshot{}, attemptErr
		}
		attempts = append(attempts, order.Attempt{
			CourierID:  cid,
			OfferedAt:  a.OfferedAt,
			Outcome:    outcome,
			ResolvedAt: a.ResolvedAt,
		})
	}

	var delivery *kernel.GeoPoint
	if dto.DeliveryLat != nil && dto.DeliveryLng != nil {
		p, geoErr := kernel.NewGeoPoint(*dto.DeliveryLat, *dto.DeliveryLng)
		if geoErr != nil {
			return order.Snapshot{}, geoErr
		}
		delivery = &p
	}

	return order.Snapshot{
		ID:              id,
		CustomerID:      dto.CustomerID,
		PharmacyID:      pharmacyID,
		Lines:           lines,
		Delivery:        delivery,
		PrescriptionRef: dto.PrescriptionRef,
		Fee:             dto.Fee,
		Status:          status,
		CourierID:       courierID,
		Attempts:        attempts,
		CreatedAt:       dto.CreatedAt,
		UpdatedAt:       dto.UpdatedAt,
		Version:         dto.Version,
	}, nil
}

func rawID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func domainID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
