// Package appointmentrepo persists appointment requests.
package appointmentrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID   string    `gorm:"type:varchar(32);not null;index"`
	CustomerName string    `gorm:"type:varchar(255)"`
	DoctorID     uuid.UUID `gorm:"type:uuid;not null"`
	Status       string    `gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (AppointmentDTO) TableName() string {
	return "appointments"
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

var _ ports.AppointmentRepository = (*GormAppointmentRepository)(nil)

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Add(ctx context.Context, a *appointment.Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	dto := AppointmentDTO{
		ID:           a.ID().Bytes(),
		CustomerID:   a.CustomerID(),
		CustomerName: a.CustomerName(),
		DoctorID:     a.DoctorID().Bytes(),
		Status:       a.Status(),
		CreatedAt:    a.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewValueIsInvalidErrorWithCause("appointment", fmt.Errorf("%s already exists", a.ID()))
		}
		return err
	}
	return nil
}

// ListByCustomer returns the appointments of customerID, newest first.
func (r *GormAppointmentRepository) ListByCustomer(ctx context.Context, customerID string) ([]*appointment.Appointment, error) {
	var dtos []AppointmentDTO
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*appointment.Appointment, 0, len(dtos))
	for _, dto := range dtos {
		id, err := kernel.UUIDFromBytes(dto.ID[:])
		if err != nil {
			return nil, err
		}
		doctorID, err := kernel.UUIDFromBytes(dto.DoctorID[:])
		if err != nil {
			return nil, err
		}
		a, err := appointment.RestoreAppointment(id, dto.CustomerID, dto.CustomerName, doctorID, dto.Status, dto.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
