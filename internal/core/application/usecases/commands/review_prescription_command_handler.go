package commands

import (
	"context"
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
)

var (
	// ErrPrescriptionNotPending is returned when the order was already reviewed
	// (or expired); a duplicate button tap ends up here.
	ErrPrescriptionNotPending = errors.New("prescription is not waiting for review")
	// ErrReviewerMismatch is returned when someone other than the order's pharmacy answers.
	ErrReviewerMismatch = errors.New("reviewer is not the order's pharmacy")
)

// ReviewResult is what the coordinator needs to notify both parties.
type ReviewResult struct {
	OrderID    kernel.UUID
	CustomerID string
	PharmacyID kernel.UUID
	Status     order.Status
	// ReadyForCourier is true when an approved order was already checked out
	// and moved straight to PENDING_COURIER.
	ReadyForCourier bool
}

type ReviewPrescriptionCommandHandler struct {
	uowFactory OrderCatalogUoWFactory
}

func NewReviewPrescriptionCommandHandler(uowFactory OrderCatalogUoWFactory) ReviewPrescriptionCommandHandler {
	return ReviewPrescriptionCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h ReviewPrescriptionCommandHandler) Handle(ctx context.Context, cmd ReviewPrescriptionCommand) (ReviewResult, error) {
	if err := cmd.Validate(); err != nil {
		return ReviewResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ReviewResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return ReviewResult{}, err
	}
	if o.Status() != order.PendingPrescription {
		return ReviewResult{}, ErrPrescriptionNotPending
	}

	pharmacy, err := uow.CatalogRepository().GetPharmacy(ctx, o.PharmacyID())
	if err != nil {
		return ReviewResult{}, err
	}
	if pharmacy.Phone != cmd.Reviewer() {
		return ReviewResult{}, ErrReviewerMismatch
	}

	if err = decide(o, cmd.Approve(), cmd.At()); err != nil {
		return ReviewResult{}, err
	}

	return commitReview(ctx, uow, o)
}

func decide(o *order.Order, approve bool, at time.Time) error {
	if !approve {
		return o.RejectPrescription(at)
	}
	if err := o.ApprovePrescription(at); err != nil {
		return err
	}
	if o.IsCheckedOut() {
		return o.AwaitCourier(at)
	}
	return nil
}

func commitReview(ctx context.Context, uow OrderUoW, o *order.Order) (ReviewResult, error) {
	if err := uow.OrderRepository().Update(ctx, o); err != nil {
		return ReviewResult{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return ReviewResult{}, err
	}

	return ReviewResult{
		OrderID:         o.ID(),
		CustomerID:      o.CustomerID(),
		PharmacyID:      o.PharmacyID(),
		Status:          o.Status(),
		ReadyForCourier: o.Status() == order.PendingCourier,
	}, nil
}
