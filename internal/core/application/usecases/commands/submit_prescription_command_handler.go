package commands

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"
)

// SubmitPrescriptionResult identifies the order now waiting for pharmacy review.
type SubmitPrescriptionResult struct {
	OrderID    kernel.UUID
	PharmacyID kernel.UUID
	Created    bool
}

type SubmitPrescriptionCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewSubmitPrescriptionCommandHandler(uowFactory OrderUoWFactory) SubmitPrescriptionCommandHandler {
	return SubmitPrescriptionCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle leaves exactly one order of the customer in PENDING_PRESCRIPTION with the photo attached.
func (h SubmitPrescriptionCommandHandler) Handle(
	ctx context.Context, cmd SubmitPrescriptionCommand,
) (SubmitPrescriptionResult, error) {
	if err := cmd.Validate(); err != nil {
		return SubmitPrescriptionResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return SubmitPrescriptionResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := h.reviewableOrder(ctx, orderRepo, cmd)
	if err != nil {
		return SubmitPrescriptionResult{}, err
	}

	created := o == nil
	if created {
		o, err = order.NewOrder(kernel.NewUUID(), cmd.CustomerID(), cmd.PharmacyID(), cmd.At())
		if err != nil {
			return SubmitPrescriptionResult{}, err
		}
	}

	if err = o.AttachPrescription(cmd.PhotoRef(), cmd.At()); err != nil {
		return SubmitPrescriptionResult{}, err
	}
	if o.Status() == order.Draft {
		if err = o.RequirePrescription(cmd.At()); err != nil {
			return SubmitPrescriptionResult{}, err
		}
	}

	if created {
		err = orderRepo.Add(ctx, o)
	} else {
		err = orderRepo.Update(ctx, o)
	}
	if err != nil {
		return SubmitPrescriptionResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return SubmitPrescriptionResult{}, err
	}

	return SubmitPrescriptionResult{
		OrderID:    o.ID(),
		PharmacyID: o.PharmacyID(),
		Created:    created,
	}, nil
}

// reviewableOrder returns the active order when it can still take a photo.
func (h SubmitPrescriptionCommandHandler) reviewableOrder(
	ctx context.Context, orderRepo ports.OrderRepository, cmd SubmitPrescriptionCommand,
) (*order.Order, error) {
	if cmd.OrderID() == nil {
		return nil, nil
	}

	o, err := orderRepo.Get(ctx, *cmd.OrderID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if o.CustomerID() != cmd.CustomerID() || !o.PharmacyID().IsEqual(cmd.PharmacyID()) {
		return nil, nil
	}
	if o.Status() != order.Draft && o.Status() != order.PendingPrescription {
		return nil, nil
	}
	return o, nil
}
