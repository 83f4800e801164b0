package commands

import (
	"context"
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

var (
	ErrRespondToOfferCommandIsNotConstructed = errors.New(
		"RespondToOfferCommand must be created via NewRespondToOfferCommand constructor",
	)
	ErrCourierPhoneIsRequired = errs.NewValueIsRequiredError("courier phone")

	// ErrOfferNoLongerValid is returned when the offer was already answered,
	// expired, or never made to this courier. It marks a lost race.
	ErrOfferNoLongerValid = errors.New("offer is no longer valid")
)

// RespondToOfferCommand is a courier's accept or refuse reply.
type RespondToOfferCommand struct {
	orderID      kernel.UUID
	courierPhone string
	accept       bool
	at           time.Time

	guard guard.ConstructorGuard
}

func NewRespondToOfferCommand(orderID kernel.UUID, courierPhone string, accept bool, at time.Time) (RespondToOfferCommand, error) {
	var err error
	if e := orderID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if courierPhone == "" {
		err = errors.Join(err, ErrCourierPhoneIsRequired)
	}
	if err != nil {
		return RespondToOfferCommand{}, err
	}

	return RespondToOfferCommand{
		orderID:      orderID,
		courierPhone: courierPhone,
		accept:       accept,
		at:           at,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c RespondToOfferCommand) Validate() error {
	return c.guard.Validate(ErrRespondToOfferCommandIsNotConstructed)
}

// OfferResult describes the order after a courier reply or an expiry.
type OfferResult struct {
	OrderID      kernel.UUID
	CustomerID   string
	CourierID    kernel.UUID
	CourierName  string
	CourierPhone string
	Status       order.Status
}

// RespondToOfferCommandHandler applies a courier reply. The order write is
// conditional on the revision that was read, so when an accept races a
// timeout (or a duplicate webhook) exactly one of them changes the order; the
// other gets ErrOfferNoLongerValid or a stale error.
type RespondToOfferCommandHandler struct {
	uowFactory UoWFactory
}

func NewRespondToOfferCommandHandler(uowFactory UoWFactory) RespondToOfferCommandHandler {
	return RespondToOfferCommandHandler{uowFactory: uowFactory}
}

func (h RespondToOfferCommandHandler) Handle(ctx context.Context, cmd RespondToOfferCommand) (OfferResult, error) {
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

	if cmd.accept {
		err = o.AcceptOffer(c.ID(), cmd.at)
	} else {
		err = o.RefuseOffer(c.ID(), cmd.at)
	}
	if err != nil {
		return OfferResult{}, offerError(err)
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

// offerError maps "this offer is not the open one any more" to ErrOfferNoLongerValid.
func offerError(err error) error {
	if errors.Is(err, order.ErrNoOutstandingOffer) {
		return errors.Join(ErrOfferNoLongerValid, err)
	}
	return err
}
