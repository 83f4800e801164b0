package commands

import (
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

var (
	ErrSubmitPrescriptionCommandIsNotConstructed = errors.New(
		"SubmitPrescriptionCommand must be created via NewSubmitPrescriptionCommand constructor",
	)
	ErrPhotoIsRequired = errs.NewValueIsRequiredError("prescription photo")
)

// SubmitPrescriptionCommand attaches a prescription photo to the customer's
// order waiting for review, or opens a new order for pharmacyID when there is none.
type SubmitPrescriptionCommand struct {
	customerID string
	pharmacyID kernel.UUID
	orderID    *kernel.UUID
	photoRef   string
	at         time.Time

	guard guard.ConstructorGuard
}

// NewSubmitPrescriptionCommand builds the command. orderID is the
// conversation's active order and may be nil.
func NewSubmitPrescriptionCommand(
	customerID string, pharmacyID kernel.UUID, orderID *kernel.UUID, photoRef string, at time.Time,
) (SubmitPrescriptionCommand, error) {
	var err error
	if customerID == "" {
		err = errors.Join(err, ErrCustomerIsRequired)
	}
	if e := pharmacyID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if photoRef == "" {
		err = errors.Join(err, ErrPhotoIsRequired)
	}
	if err != nil {
		return SubmitPrescriptionCommand{}, err
	}

	return SubmitPrescriptionCommand{
		customerID: customerID,
		pharmacyID: pharmacyID,
		orderID:    orderID,
		photoRef:   photoRef,
		at:         at,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c SubmitPrescriptionCommand) Validate() error {
	return c.guard.Validate(ErrSubmitPrescriptionCommandIsNotConstructed)
}

func (c SubmitPrescriptionCommand) CustomerID() string      { return c.customerID }
func (c SubmitPrescriptionCommand) PharmacyID() kernel.UUID { return c.pharmacyID }
func (c SubmitPrescriptionCommand) OrderID() *kernel.UUID   { return c.orderID }
func (c SubmitPrescriptionCommand) PhotoRef() string        { return c.photoRef }
func (c SubmitPrescriptionCommand) At() time.Time           { return c.at }
