package commands

import (
	"context"
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/guard"
)

var ErrExpirePrescriptionReviewCommandIsNotConstructed = errors.New(
	"ExpirePrescriptionReviewCommand must be created via NewExpirePrescriptionReviewCommand constructor",
)

// ErrReviewStillOpen is returned when the order was updated after the cutoff.
var ErrReviewStillOpen = errors.New("prescription review window is still open")

// ExpirePrescriptionReviewCommand rejects an order whose pharmacy did not
// answer before cutoff.
type ExpirePrescriptionReviewCommand struct {
	orderID kernel.UUID
	cutoff  time.Time
	at      time.Time

	guard guard.ConstructorGuard
}

func NewExpirePrescriptionReviewCommand(orderID kernel.UUID, cutoff, at time.Time) (ExpirePrescriptionReviewCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ExpirePrescriptionReviewCommand{}, err
	}
	return ExpirePrescriptionReviewCommand{
		orderID: orderID,
		cutoff:  cutoff,
		at:      at,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ExpirePrescriptionReviewCommand) Validate() error {
	return c.guard.Validate(ErrExpirePrescriptionReviewCommandIsNotConstructed)
}

type ExpirePrescriptionReviewCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewExpirePrescriptionReviewCommandHandler(uowFactory OrderUoWFactory) ExpirePrescriptionReviewCommandHandler {
	return ExpirePrescriptionReviewCommandHandler{uowFactory: uowFactory}
}

func (h ExpirePrescriptionReviewCommandHandler) Handle(
	ctx context.Context, cmd ExpirePrescriptionReviewCommand,
) (ReviewResult, error) {
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

	o, err := uow.OrderRepository().Get(ctx, cmd.orderID)
	if err != nil {
		return ReviewResult{}, err
	}
	if o.Status() != order.PendingPrescription {
		return ReviewResult{}, ErrPrescriptionNotPending
	}
	if !o.UpdatedAt().Before(cmd.cutoff) {
		return ReviewResult{}, ErrReviewStillOpen
	}

	if err = o.RejectPrescription(cmd.at); err != nil {
		return ReviewResult{}, err
	}

	return commitReview(ctx, uow, o)
}
