package commands

import (
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

var (
	ErrReviewPrescriptionCommandIsNotConstructed = errors.New(
		"ReviewPrescriptionCommand must be created via NewReviewPrescriptionCommand constructor",
	)
	ErrReviewerIsRequired = errs.NewValueIsRequiredError("reviewer")
)

// ReviewPrescriptionCommand is the pharmacy's answer to a prescription photo.
type ReviewPrescriptionCommand struct {
	orderID  kernel.UUID
	reviewer string
	approve  bool
	at       time.Time

	guard guard.ConstructorGuard
}

// NewReviewPrescriptionCommand builds the command. reviewer is the messaging
// address the button reply came from; it must be the order's pharmacy.
func NewReviewPrescriptionCommand(
	orderID kernel.UUID, reviewer string, approve bool, at time.Time,
) (ReviewPrescriptionCommand, error) {
	var err error
	if e := orderID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if reviewer == "" {
		err = errors.Join(err, ErrReviewerIsRequired)
	}
	if err != nil {
		return ReviewPrescriptionCommand{}, err
	}

	return ReviewPrescriptionCommand{
		orderID:  orderID,
		reviewer: reviewer,
		approve:  approve,
		at:       at,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ReviewPrescriptionCommand) Validate() error {
	return c.guard.Validate(ErrReviewPrescriptionCommandIsNotConstructed)
}

func (c ReviewPrescriptionCommand) OrderID() kernel.UUID { return c.orderID }
func (c ReviewPrescriptionCommand) Reviewer() string     { return c.reviewer }
func (c ReviewPrescriptionCommand) Approve() bool        { return c.approve }
func (c ReviewPrescriptionCommand) At() time.Time        { return c.at }
