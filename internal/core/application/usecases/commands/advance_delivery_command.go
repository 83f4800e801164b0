package commands

import (
	"context"
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/guard"
)

var ErrAdvanceDeliveryCommandIsNotConstructed = errors.New(
	"AdvanceDeliveryCommand must be created via NewAdvanceDeliveryCommand constructor",
)

// DeliveryStage is the step a courier reports.
type DeliveryStage int

const (
	StagePickedUp DeliveryStage = iota + 1
	StageDelivered
)

// AdvanceDeliveryCommand moves an assigned order en route or to delivered.
type AdvanceDeliveryCommand struct {
	orderID      kernel.UUID
	courierPhone string
	stage        DeliveryStage
	at           time.Time

	guard guard.ConstructorGuard
}

func NewAdvanceDeliveryCommand(
	orderID kernel.UUID, courierPhone string, stage DeliveryStage, at time.Time,
) (AdvanceDeliveryCommand, error) {
	var err error
	if e := orderID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if courierPhone == "" {
		err = errors.Join(err, ErrCourierPhoneIsRequired)
	}
	if stage != StagePickedUp && stage != StageDelivered {
		err = errors.Join(err, errors.New("unknown delivery stage"))
	}
	if err != nil {
		return AdvanceDeliveryCommand{}, err
	}

	return AdvanceDeliveryCommand{
		orderID:      orderID,
		courierPhone: courierPhone,
		stage:        stage,
		at:           at,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c AdvanceDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceDeliveryCommandIsNotConstructed)
}

type AdvanceDeliveryCommandHandler struct {
	uowFactory UoWFactory
}

func NewAdvanceDeliveryCommandHandler(uowFactory UoWFactory) AdvanceDeliveryCommandHandler {
	return AdvanceDeliveryCommandHandler{uowFactory: uowFactory}
}

func (h AdvanceDeliveryCommandHandler) Handle(ctx context.Context, cmd AdvanceDeliveryCommand) (OfferResult, error) {
	if err := cmd.Validate(); err != nil {
		return OfferResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return OfferResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	c, err := uow.CourierRepository().GetByPhone(ctx, cmd.courierPhone)
	if err != nil {
		return OfferResult{}, err
	}

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.orderID)
	if err != nil {
		return OfferResult{}, err
	}

	if cmd.stage == StagePickedUp {
		err = o.PickUp(c.ID(), cmd.at)
	} else {
		err = o.Deliver(c.ID(), cmd.at)
	}
	if err != nil {
		return OfferResult{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return OfferResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return OfferResult{}, err
	}

	return OfferResult{
		OrderID:      o.ID(),
		CustomerID:   o.CustomerID(),
		CourierID:    c.ID(),
		CourierName:  c.Name(),
		CourierPhone: c.Phone(),
		Status:       o.Status(),
	}, nil
}
