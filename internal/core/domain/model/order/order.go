package order

import (
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through NewOrder or Restore.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrNoOutstandingOffer is returned when a courier answers an offer that is
	// no longer the latest outstanding one (already answered, expired, or never made).
	ErrNoOutstandingOffer = errors.New("no outstanding offer for this courier")

	// ErrCourierAlreadyTried is returned when an order is offered twice to the same courier.
	ErrCourierAlreadyTried = errors.New("courier was already offered this order")

	// ErrOfferOutstanding is returned when a new offer is made while another one is still open.
	ErrOfferOutstanding = errors.New("order already has an outstanding offer")

	// ErrCourierMismatch is returned when a courier acts on an order assigned to someone else.
	ErrCourierMismatch = errors.New("order is assigned to another courier")
)

// Revision identifies the stored state an Order was loaded from. Repositories
// use it as the compare-and-swap guard of a conditional update: the write only
// applies when the stored row still carries the same version, status and
// outstanding courier.
type Revision struct {
	Version          int64
	Status           Status
	OfferedCourierID *kernel.UUID
}

// Order is the aggregate root for one delivery, from the first prescription
// photo or checkout through courier assignment to delivery.
//
// Invariants:
//   - every line belongs to the order's pharmacy (enforced upstream by the cart)
//   - lines, delivery point and fee are set once, at checkout
//   - at most one courier offer is outstanding, and a courier is offered an order at most once
//   - status only follows the edges of the Status transition table
type Order struct {
	id              kernel.UUID
	customerID      string
	pharmacyID      kernel.UUID
	lines           []Line
	delivery        *kernel.GeoPoint
	prescriptionRef string
	fee             int64
	status          Status
	courierID       *kernel.UUID
	attempts        []Attempt
	createdAt       time.Time
	updatedAt       time.Time

	version int64
	origin  Revision

	isConstructed bool
}

// NewOrder creates an empty Draft order for customerID at pharmacyID.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), "2250700000000", pharmacyID, time.Now())
//	if err != nil {
//	    return err
//	}
//	err = o.Checkout(lines, deliveryPoint, fee, time.Now())
func NewOrder(id kernel.UUID, customerID string, pharmacyID kernel.UUID, now time.Time) (*Order, error) {
	o := &Order{
		status:        Draft,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setPharmacyID(pharmacyID),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order was built through NewOrder or Restore.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID is the messaging address of the customer who placed the order.
func (o *Order) CustomerID() string {
	return o.customerID
}

func (o *Order) PharmacyID() kernel.UUID {
	return o.pharmacyID
}

// Lines returns a copy of the order lines.
func (o *Order) Lines() []Line {
	out := make([]Line, len(o.lines))
	copy(out, o.lines)
	return out
}

// Delivery is nil until checkout.
func (o *Order) Delivery() *kernel.GeoPoint {
	return o.delivery
}

func (o *Order) PrescriptionRef() string {
	return o.prescriptionRef
}

func (o *Order) Fee() int64 {
	return o.fee
}

func (o *Order) Status() Status {
	return o.status
}

// Courier returns the assigned courier, nil before acceptance.
func (o *Order) Courier() *kernel.UUID {
	return o.courierID
}

// Attempts returns a copy of the courier offer log, oldest first.
func (o *Order) Attempts() []Attempt {
	out := make([]Attempt, len(o.attempts))
	copy(out, o.attempts)
	return out
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

func (o *Order) Version() int64 {
	return o.version
}

// Revision returns the compare-and-swap guard captured when the order was loaded
// or last saved.
func (o *Order) Revision() Revision {
	return o.origin
}

// MarkSaved is called by repositories after a successful write; the current
// state becomes the new origin revision.
func (o *Order) MarkSaved(version int64) {
	o.version = version
	o.origin = Revision{
		Version:          version,
		Status:           o.status,
		OfferedCourierID: o.OutstandingCourier(),
	}
}

// IsCheckedOut reports whether lines and a delivery point have been set.
func (o *Order) IsCheckedOut() bool {
	return len(o.lines) > 0
}

// RequiresPrescription reports whether any line is prescription gated.
func (o *Order) RequiresPrescription() bool {
	for _, l := range o.lines {
		if l.RequiresPrescription {
			return true
		}
	}
	return false
}

// Subtotal is the sum of all line amounts, fee excluded.
func (o *Order) Subtotal() int64 {
	var total int64
	for _, l := range o.lines {
		total += l.Amount()
	}
	return total
}

func (o *Order) Total() int64 {
	return o.Subtotal() + o.fee
}

// LatestAttempt returns the most recent courier offer, if any.
func (o *Order) LatestAttempt() (Attempt, bool) {
	if len(o.attempts) == 0 {
		return Attempt{}, false
	}
	return o.attempts[len(o.attempts)-1], true
}

// OutstandingCourier returns the courier holding an open offer, or nil.
func (o *Order) OutstandingCourier() *kernel.UUID {
	latest, ok := o.LatestAttempt()
	if !ok || !latest.IsOutstanding() {
		return nil
	}
	id := latest.CourierID
	return &id
}

func (o *Order) HasOutstandingOffer() bool {
	return o.OutstandingCourier() != nil
}

// HasTried reports whether courierID has already been offered this order.
func (o *Order) HasTried(courierID kernel.UUID) bool {
	for _, a := range o.attempts {
		if a.CourierID.IsEqual(courierID) {
			return true
		}
	}
	return false
}

// AttachPrescription stores the photo reference submitted by the customer.
// Allowed while the order is Draft or waiting for the pharmacy.
func (o *Order) AttachPrescription(ref string, now time.Time) error {
	if ref == "" {
		return errs.NewValueIsRequiredError("prescription reference")
	}
	if o.status != Draft && o.status != PendingPrescription {
		return errs.NewValueIsInvalidErrorWithCause(
			"status", fmt.Errorf("cannot attach a prescription to a %s order", o.status))
	}

	o.prescriptionRef = ref
	o.updatedAt = now
	return nil
}

// RequirePrescription moves a Draft order to PendingPrescription.
func (o *Order) RequirePrescription(now time.Time) error {
	return o.transition(PendingPrescription, now)
}

// Checkout sets the lines, delivery point and fee. A Draft order with a gated
// line moves to PendingPrescription; anything else moves to PendingCourier.
// An order whose prescription was approved before checkout may be checked out too.
func (o *Order) Checkout(lines []Line, delivery kernel.GeoPoint, fee int64, now time.Time) error {
	if o.IsCheckedOut() {
		return errs.NewValueIsInvalidErrorWithCause("order", errors.New("already checked out"))
	}
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("order lines")
	}

	err := delivery.Validate()
	for _, l := range lines {
		err = errors.Join(err, l.Validate())
	}
	if fee < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause("fee", fmt.Errorf("%d is negative", fee)))
	}
	if err != nil {
		return err
	}

	next := PendingCourier
	if o.status == Draft && requiresPrescription(lines) {
		next = PendingPrescription
	}
	if err = o.transition(next, now); err != nil {
		return err
	}

	o.lines = append([]Line(nil), lines...)
	o.delivery = &delivery
	o.fee = fee
	return nil
}

func (o *Order) ApprovePrescription(now time.Time) error {
	return o.transition(PrescriptionApproved, now)
}

func (o *Order) RejectPrescription(now time.Time) error {
	return o.transition(PrescriptionRejected, now)
}

// AwaitCourier moves a checked-out, approved order to PendingCourier.
func (o *Order) AwaitCourier(now time.Time) error {
	if !o.IsCheckedOut() {
		return errs.NewValueIsInvalidErrorWithCause("order", errors.New("not checked out"))
	}
	return o.transition(PendingCourier, now)
}

// Offer records a new outstanding offer to courierID.
func (o *Order) Offer(courierID kernel.UUID, now time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if o.HasOutstandingOffer() {
		return ErrOfferOutstanding
	}
	if o.HasTried(courierID) {
		return ErrCourierAlreadyTried
	}
	if err := o.transition(PendingCourier, now); err != nil {
		return err
	}

	o.attempts = append(o.attempts, Attempt{
		CourierID: courierID,
		OfferedAt: now,
		Outcome:   Offered,
	})
	return nil
}

// AcceptOffer assigns the order to courierID, provided courierID holds the
// outstanding offer.
func (o *Order) AcceptOffer(courierID kernel.UUID, now time.Time) error {
	if err := o.resolveOffer(courierID, Accepted, CourierAssigned, now); err != nil {
		return err
	}
	o.courierID = &courierID
	return nil
}

// RefuseOffer closes courierID's outstanding offer as refused.
func (o *Order) RefuseOffer(courierID kernel.UUID, now time.Time) error {
	return o.resolveOffer(courierID, Refused, PendingCourier, now)
}

// ExpireOffer closes courierID's outstanding offer as timed out.
func (o *Order) ExpireOffer(courierID kernel.UUID, now time.Time) error {
	return o.resolveOffer(courierID, TimedOut, PendingCourier, now)
}

// MarkUnassignable ends courier assignment after every candidate was exhausted.
func (o *Order) MarkUnassignable(now time.Time) error {
	if o.HasOutstandingOffer() {
		return ErrOfferOutstanding
	}
	return o.transition(Unassignable, now)
}

// PickUp moves the order en route; only the assigned courier may do it.
func (o *Order) PickUp(courierID kernel.UUID, now time.Time) error {
	if err := o.checkCourier(courierID); err != nil {
		return err
	}
	return o.transition(EnRoute, now)
}

// Deliver completes the order; only the assigned courier may do it.
func (o *Order) Deliver(courierID kernel.UUID, now time.Time) error {
	if err := o.checkCourier(courierID); err != nil {
		return err
	}
	return o.transition(Delivered, now)
}

func (o *Order) resolveOffer(courierID kernel.UUID, outcome AttemptOutcome, next Status, now time.Time) error {
	outstanding := o.OutstandingCourier()
	if outstanding == nil || !outstanding.IsEqual(courierID) {
		return ErrNoOutstandingOffer
	}
	if err := o.transition(next, now); err != nil {
		return err
	}

	resolvedAt := now
	latest := &o.attempts[len(o.attempts)-1]
	latest.Outcome = outcome
	latest.ResolvedAt = &resolvedAt
	return nil
}

func (o *Order) checkCourier(courierID kernel.UUID) error {
	if o.courierID == nil || !o.courierID.IsEqual(courierID) {
		return ErrCourierMismatch
	}
	return nil
}

func (o *Order) transition(next Status, now time.Time) error {
	status, err := o.status.TransitionTo(next)
	if err != nil {
		return err
	}
	o.status = status
	o.updatedAt = now
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(customerID string) error {
	if customerID == "" {
		return errs.NewValueIsRequiredError("customer id")
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setPharmacyID(pharmacyID kernel.UUID) error {
	if err := pharmacyID.Validate(); err != nil {
		return err
	}
	o.pharmacyID = pharmacyID
	return nil
}

func requiresPrescription(lines []Line) bool {
	for _, l := range lines {
		if l.RequiresPrescription {
			return true
		}
	}
	return false
}
