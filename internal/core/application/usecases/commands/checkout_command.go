package commands

import (
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

var (
	ErrCheckoutCommandIsNotConstructed = errors.New(
		"CheckoutCommand must be created via NewCheckoutCommand constructor",
	)
	ErrCustomerIsRequired = errs.NewValueIsRequiredError("customer id")
	ErrLinesAreRequired   = errs.NewValueIsRequiredError("order lines")
)

// CheckoutCommand turns a cart into an order.
//
// Example:
//
//	cmd, err := NewCheckoutCommand(CheckoutParams{
//	    CustomerID: "2250701020304",
//	    PharmacyID: pharmacyID,
//	    Lines:      lines,
//	    Delivery:   point,
//	    Fee:        1000,
//	    At:         time.Now(),
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid checkout: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd)
type CheckoutCommand struct { //nolint:recvcheck //using for validation
	params CheckoutParams

	guard guard.ConstructorGuard
}

// CheckoutParams carries the checkout inputs.
type CheckoutParams struct {
	CustomerID string
	PharmacyID kernel.UUID
	Lines      []order.Line
	Delivery   kernel.GeoPoint
	Fee        int64
	// ApprovedOrderID is the conversation's active order. It is reused when it
	// is a PRESCRIPTION_APPROVED order of the same customer and pharmacy that
	// was not checked out yet.
	ApprovedOrderID *kernel.UUID
	// PrescriptionRef is the last photo the customer sent, attached when a new
	// order needs pharmacy review.
	PrescriptionRef string
	At              time.Time
}

func NewCheckoutCommand(params CheckoutParams) (CheckoutCommand, error) {
	var err error
	if params.CustomerID == "" {
		err = errors.Join(err, ErrCustomerIsRequired)
	}
	if e := params.PharmacyID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if len(params.Lines) == 0 {
		err = errors.Join(err, ErrLinesAreRequired)
	}
	for _, l := range params.Lines {
		err = errors.Join(err, l.Validate())
	}
	if e := params.Delivery.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if params.Fee < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause("fee", fmt.Errorf("%d is negative", params.Fee)))
	}
	if err != nil {
		return CheckoutCommand{}, err
	}

	params.Lines = append([]order.Line(nil), params.Lines...)
	return CheckoutCommand{
		params: params,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CheckoutCommand) Validate() error {
	return c.guard.Validate(ErrCheckoutCommandIsNotConstructed)
}

func (c CheckoutCommand) Params() CheckoutParams {
	return c.params
}
