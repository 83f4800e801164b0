package commands

import (
	"context"
	"errors"
	"fmt"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/pkg/errs"
)

// ErrCourierPhoneTaken is returned when another courier already answers on
// the phone; button replies are matched to couriers by phone.
var ErrCourierPhoneTaken = errors.New("courier phone already registered")

// CreateCourierCommandHandler registers a courier.
//
//	handler := NewCreateCourierCommandHandler(uowFactory)
//	cmd, _ := NewCreateCourierCommand(kernel.NewUUID(), "Awa", "2250708091011", true, nil)
//	err := handler.Handle(ctx, cmd)
type CreateCourierCommandHandler struct {
	uowFactory CourierUoWFactory
}

func NewCreateCourierCommandHandler(uowFactory CourierUoWFactory) CreateCourierCommandHandler {
	return CreateCourierCommandHandler{uowFactory: uowFactory}
}

func (h CreateCourierCommandHandler) Handle(ctx context.Context, cmd CreateCourierCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.CourierRepository()
	switch _, err := repo.GetByPhone(ctx, cmd.Phone()); {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrCourierPhoneTaken, cmd.Phone())
	case !errors.Is(err, errs.ErrObjectNotFound):
		return err
	}

	c, err := courier.RestoreCourier(cmd.CourierID(), cmd.Name(), cmd.Phone(), cmd.Verified(), cmd.Location())
	if err != nil {
		return err
	}
	if err := repo.Add(ctx, c); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
