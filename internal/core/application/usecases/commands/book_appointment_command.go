package commands

import (
	"context"
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/guard"
)

var ErrBookAppointmentCommandIsNotConstructed = errors.New(
	"BookAppointmentCommand must be created via NewBookAppointmentCommand constructor",
)

// BookAppointmentCommand records a REQUESTED appointment with a doctor.
type BookAppointmentCommand struct {
	customerID   string
	customerName string
	doctorID     kernel.UUID
	at           time.Time

	guard guard.ConstructorGuard
}

func NewBookAppointmentCommand(
	customerID, customerName string, doctorID kernel.UUID, at time.Time,
) (BookAppointmentCommand, error) {
	var err error
	if customerID == "" {
		err = errors.Join(err, ErrCustomerIsRequired)
	}
	if e := doctorID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if err != nil {
		return BookAppointmentCommand{}, err
	}

	return BookAppointmentCommand{
		customerID:   customerID,
		customerName: customerName,
		doctorID:     doctorID,
		at:           at,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c BookAppointmentCommand) Validate() error {
	return c.guard.Validate(ErrBookAppointmentCommandIsNotConstructed)
}

// BookAppointmentResult carries what the confirmation message needs.
type BookAppointmentResult struct {
	AppointmentID kernel.UUID
	DoctorName    string
	Specialty     string
}

type BookAppointmentCommandHandler struct {
	uowFactory AppointmentUoWFactory
}

func NewBookAppointmentCommandHandler(uowFactory AppointmentUoWFactory) BookAppointmentCommandHandler {
	return BookAppointmentCommandHandler{uowFactory: uowFactory}
}

// Handle fails with an ObjectNotFoundError when the doctor is unknown.
func (h BookAppointmentCommandHandler) Handle(ctx context.Context, cmd BookAppointmentCommand) (BookAppointmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return BookAppointmentResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return BookAppointmentResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	doctor, err := uow.CatalogRepository().GetDoctor(ctx, cmd.doctorID)
	if err != nil {
		return BookAppointmentResult{}, err
	}

	a, err := appointment.NewAppointment(kernel.NewUUID(), cmd.customerID, cmd.customerName, doctor.ID, cmd.at)
	if err != nil {
		return BookAppointmentResult{}, err
	}
	if err = uow.AppointmentRepository().Add(ctx, a); err != nil {
		return BookAppointmentResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return BookAppointmentResult{}, err
	}

	return BookAppointmentResult{
		AppointmentID: a.ID(),
		DoctorName:    doctor.Name,
		Specialty:     doctor.Specialty,
	}, nil
}
