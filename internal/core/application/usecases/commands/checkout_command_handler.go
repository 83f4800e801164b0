package commands

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"
)

// CheckoutResult describes the order a checkout produced.
type CheckoutResult struct {
	OrderID kernel.UUID
	Status  order.Status
	Total   int64
	// Reused is true when an already approved order was checked out.
	Reused bool
}

// CheckoutCommandHandler creates (or completes) the order and decrements
// stock in one transaction. Stock is decremented with a conditional write, so
// a concurrent checkout that empties the shelf first fails this one with
// *conversation.InsufficientStockError.
type CheckoutCommandHandler struct {
	uowFactory OrderCatalogUoWFactory
}

func NewCheckoutCommandHandler(uowFactory OrderCatalogUoWFactory) CheckoutCommandHandler {
	return CheckoutCommandHandler{
		uowFactory: uowFactory,
	}
}

func (h CheckoutCommandHandler) Handle(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if err := cmd.Validate(); err != nil {
		return CheckoutResult{}, err
	}
	p := cmd.Params()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CheckoutResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	catalogRepo := uow.CatalogRepository()

	o, reused, err := h.loadApprovedOrder(ctx, orderRepo, p)
	if err != nil {
		return CheckoutResult{}, err
	}
	if o == nil {
		o, err = order.NewOrder(kernel.NewUUID(), p.CustomerID, p.PharmacyID, p.At)
		if err != nil {
			return CheckoutResult{}, err
		}
	}

	for _, line := range p.Lines {
		if err = catalogRepo.DecrementStock(ctx, line.MedicineID, line.Quantity); err != nil {
			return CheckoutResult{}, h.stockError(ctx, catalogRepo, line, err)
		}
	}

	if err = o.Checkout(p.Lines, p.Delivery, p.Fee, p.At); err != nil {
		return CheckoutResult{}, err
	}
	if o.Status() == order.PendingPrescription && p.PrescriptionRef != "" {
		if err = o.AttachPrescription(p.PrescriptionRef, p.At); err != nil {
			return CheckoutResult{}, err
		}
	}

	if reused {
		err = orderRepo.Update(ctx, o)
	} else {
		err = orderRepo.Add(ctx, o)
	}
	if err != nil {
		return CheckoutResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{
		OrderID: o.ID(),
		Status:  o.Status(),
		Total:   o.Total(),
		Reused:  reused,
	}, nil
}

func (h CheckoutCommandHandler) loadApprovedOrder(
	ctx context.Context,
	orderRepo ports.OrderRepository,
	p CheckoutParams,
) (*order.Order, bool, error) {
	if p.ApprovedOrderID == nil {
		return nil, false, nil
	}

	o, err := orderRepo.Get(ctx, *p.ApprovedOrderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if o.Status() != order.PrescriptionApproved || o.IsCheckedOut() ||
		o.CustomerID() != p.CustomerID || !o.PharmacyID().IsEqual(p.PharmacyID) {
		return nil, false, nil
	}
	return o, true, nil
}

func (h CheckoutCommandHandler) stockError(
	ctx context.Context,
	catalogRepo ports.CatalogRepository,
	line order.Line,
	cause error,
) error {
	if !errors.Is(cause, errs.ErrObjectIsStale) {
		return cause
	}
	available := 0
	if m, err := catalogRepo.GetMedicine(ctx, line.MedicineID); err == nil {
		available = m.Stock
	}
	return &conversation.InsufficientStockError{
		MedicineName: line.Name,
		Requested:    line.Quantity,
		Available:    available,
	}
}
