package order

import (
	"errors"
	"fmt"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
)

// Line is one medicine on a checked-out order. Name, UnitPrice and
// RequiresPrescription are snapshots taken when the item entered the cart.
type Line struct {
	MedicineID           kernel.UUID
	Name                 string
	Quantity             int
	UnitPrice            int64
	RequiresPrescription bool
}

func (l Line) Validate() error {
	var err error
	if e := l.MedicineID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if l.Name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("line name"))
	}
	if l.Quantity <= 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause(
			"line quantity", fmt.Errorf("%d is not greater than 0", l.Quantity)))
	}
	if l.UnitPrice < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause(
			"line unit price", fmt.Errorf("%d is negative", l.UnitPrice)))
	}
	return err
}

// Amount is Quantity times UnitPrice.
func (l Line) Amount() int64 {
	return int64(l.Quantity) * l.UnitPrice
}
