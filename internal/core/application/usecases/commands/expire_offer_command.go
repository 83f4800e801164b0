package commands

import (
	"context"
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/guard"
)

var ErrExpireOfferCommandIsNotConstructed = errors.New(
	"ExpireOfferCommand must be created via NewExpireOfferCommand constructor",
)

// ExpireOfferCommand closes courierID's offer on orderID as timed out. It is
// fired by the offer timer and by the expiry sweep; whichever comes second,
// or comes after the courier answered, gets ErrOfferNoLongerValid.
type ExpireOfferCommand struct {
	orderID   kernel.UUID
	courierID kernel.UUID
	at        time.Time

	guard guard.ConstructorGuard
}

func NewExpireOfferCommand(orderID, courierID kernel.UUID, at time.Time) (ExpireOfferCommand, error) {
	if err := errors.Join(orderID.Validate(), courierID.Validate()); err != nil {
		return ExpireOfferCommand{}, err
	}
	return ExpireOfferCommand{
		orderID:   orderID,
		courierID: courierID,
		at:        at,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ExpireOfferCommand) Validate() error {
	return c.guard.Validate(ErrExpireOfferCommandIsNotConstructed)
}

type ExpireOfferCommandHandler struct {
	uowFactory UoWFactory
}

func NewExpireOfferCommandHandler(uowFactory UoWFactory) ExpireOfferCommandHandler {
	return ExpireOfferCommandHandler{uowFactory: uowFactory}
}

func (h ExpireOfferCommandHandler) Handle(ctx context.Context, cmd ExpireOfferCommand) (OfferResult, error) {
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

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.orderID)
	if err != nil {
		return OfferResult{}, err
	}

	if err = o.ExpireOffer(cmd.courierID, cmd.at); err != nil {
		return OfferResult{}, offerError(err)
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return OfferResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return OfferResult{}, err
	}

	result := OfferResult{
		OrderID:    o.ID(),
		CustomerID: o.CustomerID(),
		CourierID:  cmd.courierID,
		Status:     o.Status(),
	}
	if c, getErr := uow.CourierRepository().Get(ctx, cmd.courierID); getErr == nil {
		result.CourierName = c.Name()
		result.CourierPhone = c.Phone()
	}
	return result, nil
}
