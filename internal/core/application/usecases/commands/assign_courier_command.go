package commands

import (
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

var ErrAssignCourierCommandIsNotConstructed = errors.New(
	"AssignCourierCommand must be created via NewAssignCourierCommand constructor",
)

// AssignCourierCommand offers a PENDING_COURIER order to its next candidate courier.
//
// Example:
//
//	cmd, _ := NewAssignCourierCommand(orderID, 10, time.Now())
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, ErrNoCourierAvailable):
//	    // order stays PENDING_COURIER, retried later
//	case err != nil:
//	    return err
//	case result.Unassignable:
//	    // every candidate refused or timed out
//	default:
//	    // result.CourierPhone has an outstanding offer
//	}
type AssignCourierCommand struct {
	orderID        kernel.UUID
	candidateLimit int
	at             time.Time

	guard guard.ConstructorGuard
}

// NewAssignCourierCommand creates the command. candidateLimit bounds the
// candidate list fetched from the repository.
func NewAssignCourierCommand(orderID kernel.UUID, candidateLimit int, at time.Time) (AssignCourierCommand, error) {
	var err error
	if e := orderID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if candidateLimit <= 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause(
			"candidate limit", fmt.Errorf("%d is not greater than 0", candidateLimit)))
	}
	if err != nil {
		return AssignCourierCommand{}, err
	}

	return AssignCourierCommand{
		orderID:        orderID,
		candidateLimit: candidateLimit,
		at:             at,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignCourierCommand) Validate() error {
	return c.guard.Validate(ErrAssignCourierCommandIsNotConstructed)
}

func (c AssignCourierCommand) OrderID() kernel.UUID { return c.orderID }
func (c AssignCourierCommand) CandidateLimit() int  { return c.candidateLimit }
func (c AssignCourierCommand) At() time.Time        { return c.at }
