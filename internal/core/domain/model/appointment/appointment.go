// Package appointment models a customer's request to see a doctor. The
// service records the request; confirmation happens outside the chat.
package appointment

import (
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

// StatusRequested is the only status the service writes.
const StatusRequested = "REQUESTED"

var ErrAppointmentIsNotConstructed = errors.New("Appointment must be created via NewAppointment constructor")

type Appointment struct {
	id           kernel.UUID
	customerID   string
	customerName string
	doctorID     kernel.UUID
	status       string
	createdAt    time.Time
	guard        guard.ConstructorGuard
}

// NewAppointment records a REQUESTED appointment. customerName may be empty.
func NewAppointment(id kernel.UUID, customerID, customerName string, doctorID kernel.UUID, now time.Time) (*Appointment, error) {
	return restore(id, customerID, customerName, doctorID, StatusRequested, now)
}

// RestoreAppointment rebuilds an appointment loaded from storage.
func RestoreAppointment(
	id kernel.UUID, customerID, customerName string, doctorID kernel.UUID, status string, createdAt time.Time,
) (*Appointment, error) {
	return restore(id, customerID, customerName, doctorID, status, createdAt)
}

func restore(
	id kernel.UUID, customerID, customerName string, doctorID kernel.UUID, status string, createdAt time.Time,
) (*Appointment, error) {
	var err error
	if e := id.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if e := doctorID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if customerID == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("customer id"))
	}
	if status == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("status"))
	}
	if err != nil {
		return nil, err
	}

	return &Appointment{
		id:           id,
		customerID:   customerID,
		customerName: customerName,
		doctorID:     doctorID,
		status:       status,
		createdAt:    createdAt,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (a *Appointment) Validate() error {
	if a == nil {
		return ErrAppointmentIsNotConstructed
	}
	return a.guard.Validate(ErrAppointmentIsNotConstructed)
}

func (a *Appointment) ID() kernel.UUID       { return a.id }
func (a *Appointment) CustomerID() string    { return a.customerID }
func (a *Appointment) CustomerName() string  { return a.customerName }
func (a *Appointment) DoctorID() kernel.UUID { return a.doctorID }
func (a *Appointment) Status() string        { return a.status }
func (a *Appointment) CreatedAt() time.Time  { return a.createdAt }
