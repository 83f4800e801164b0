package ports

import (
	"context"

	"pharmadelivery/internal/core/domain/model/appointment"
)

type AppointmentRepository interface {
	Add(ctx context.Context, aggregate *appointment.Appointment) error
}
