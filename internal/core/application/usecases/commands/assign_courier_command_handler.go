package commands

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"
)

var (
	// ErrNoCourierAvailable is returned when no verified courier exists, or when
	// every untried candidate is busy. The order stays PENDING_COURIER for a
	// later retry.
	ErrNoCourierAvailable = errors.New("no courier available")
	// ErrOrderNotAwaitingCourier is returned when the order left PENDING_COURIER.
	ErrOrderNotAwaitingCourier = errors.New("order is not waiting for a courier")
)

// AssignCourierResult reports what the handler did with the order.
type AssignCourierResult struct {
	OrderID    kernel.UUID
	CustomerID string
	// CourierID and CourierPhone are set when an offer was made.
	CourierID    kernel.UUID
	CourierPhone string
	// AttemptNo is the 1-based number of the offer just made.
	AttemptNo int
	// Unassignable is true when every candidate was exhausted.
	Unassignable bool
	Order        *order.Order
}

// AssignCourierCommandHandler offers an order to the next untried, free,
// verified courier, ranked by distance to the pharmacy. Exhaustion is judged
// against the verified candidate list whether or not its couriers are busy:
// the order becomes UNASSIGNABLE only once every candidate was tried.
type AssignCourierCommandHandler struct {
	uowFactory UoWFactory
	selector   services.CourierSelector
}

// NewAssignCourierCommandHandler creates a handler for courier assignment operations.
func NewAssignCourierCommandHandler(uowFactory UoWFactory) AssignCourierCommandHandler {
	return AssignCourierCommandHandler{
		uowFactory: uowFactory,
		selector:   services.NewCourierSelector(),
	}
}

func (h AssignCourierCommandHandler) Handle(ctx context.Context, cmd AssignCourierCommand) (AssignCourierResult, error) {
	if err := cmd.Validate(); err != nil {
		return AssignCourierResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AssignCourierResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	courierRepo := uow.CourierRepository()
	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return AssignCourierResult{}, err
	}
	if o.Status() != order.PendingCourier {
		return AssignCourierResult{}, ErrOrderNotAwaitingCourier
	}
	if o.HasOutstandingOffer() {
		return AssignCourierResult{}, order.ErrOfferOutstanding
	}

	candidates, err := courierRepo.GetAllVerified(ctx, cmd.CandidateLimit())
	if err != nil {
		return AssignCourierResult{}, err
	}
	if len(candidates) == 0 {
		return AssignCourierResult{}, ErrNoCourierAvailable
	}

	pharmacy, err := uow.CatalogRepository().GetPharmacy(ctx, o.PharmacyID())
	if err != nil {
		return AssignCourierResult{}, err
	}

	result := AssignCourierResult{OrderID: o.ID(), CustomerID: o.CustomerID(), Order: o}

	untried := h.selector.Rank(o, candidates, pharmacy.Location)
	if len(untried) == 0 {
		if err = o.MarkUnassignable(cmd.At()); err != nil {
			return AssignCourierResult{}, err
		}
		result.Unassignable = true
	} else {
		free, err := courierRepo.GetAllFree(ctx, 0)
		if err != nil {
			return AssignCourierResult{}, err
		}
		next, err := h.selector.Select(o, freeAmong(untried, free), pharmacy.Location)
		if errors.Is(err, services.ErrCourierNotFound) {
			return AssignCourierResult{}, ErrNoCourierAvailable
		}
		if err != nil {
			return AssignCourierResult{}, err
		}

		if err = o.Offer(next.ID(), cmd.At()); err != nil {
			return AssignCourierResult{}, err
		}
		result.CourierID = next.ID()
		result.CourierPhone = next.Phone()
		result.AttemptNo = len(o.Attempts())
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return AssignCourierResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return AssignCourierResult{}, err
	}

	return result, nil
}

// freeAmong keeps the candidates that also appear in free, in candidate order.
func freeAmong(candidates, free []*courier.Courier) []*courier.Courier {
	out := make([]*courier.Courier, 0, len(candidates))
	for _, c := range candidates {
		for _, f := range free {
			if f.ID().IsEqual(c.ID()) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
