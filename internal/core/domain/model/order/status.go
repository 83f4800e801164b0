package order

import (
	"fmt"

	"pharmadelivery/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	Draft ──┬──> PendingPrescription ──┬──> PrescriptionApproved ──┐
//	        │                          └──> PrescriptionRejected   │
//	        └──────────────────────────────────────────────────────┴──> PendingCourier
//
//	PendingCourier ──┬──> PendingCourier (offer, refusal, timeout)
//	                 ├──> CourierAssigned ──> EnRoute ──> Delivered
//	                 └──> Unassignable
//
// PrescriptionRejected, Unassignable and Delivered are terminal.
type Status int

const (
	// Unknown (0) catches uninitialized Status values.
	Unknown Status = iota
	Draft
	PendingPrescription
	PrescriptionApproved
	PrescriptionRejected
	PendingCourier
	CourierAssigned
	EnRoute
	Delivered
	Unassignable
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:              "UNKNOWN",
		Draft:                "DRAFT",
		PendingPrescription:  "PENDING_PRESCRIPTION",
		PrescriptionApproved: "PRESCRIPTION_APPROVED",
		PrescriptionRejected: "PRESCRIPTION_REJECTED",
		PendingCourier:       "PENDING_COURIER",
		CourierAssigned:      "COURIER_ASSIGNED",
		EnRoute:              "EN_ROUTE",
		Delivered:            "DELIVERED",
		Unassignable:         "UNASSIGNABLE",
	}
}

// getTransitions lists, for every non-terminal status, the statuses it may move to.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing edges
	return map[Status][]Status{
		Draft:                {PendingPrescription, PendingCourier},
		PendingPrescription:  {PrescriptionApproved, PrescriptionRejected},
		PrescriptionApproved: {PendingCourier},
		PendingCourier:       {PendingCourier, CourierAssigned, Unassignable},
		CourierAssigned:      {EnRoute},
		EnRoute:              {Delivered},
	}
}

// ParseStatus maps the persisted/wire name of a status back to its value.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate rejects Unknown and out-of-range values, e.g. a corrupted database row.
func (s Status) Validate() error {
	if s <= Unknown || s > Unassignable {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == PrescriptionRejected || s == Unassignable || s == Delivered
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range getTransitions()[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TransitionTo returns next when the edge s -> next exists.
//
// Example:
//
//	newStatus, err := order.PendingCourier.TransitionTo(order.CourierAssigned)
//	if err != nil {
//	    // the order already moved on
//	}
func (s Status) TransitionTo(next Status) (Status, error) {
	if !s.CanTransitionTo(next) {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s -> %s is not an allowed transition", s, next),
		)
	}
	return next, nil
}
