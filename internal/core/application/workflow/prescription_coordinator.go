package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pharmadelivery/internal/core/application/replies"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/observability"
)

// ErrNoPharmacySelected is returned when a photo arrives before the user
// picked a medicine, so there is no pharmacy to send it to.
var ErrNoPharmacySelected = errors.New("no pharmacy selected for the prescription")

// PrescriptionHandlers groups the command handlers of the review protocol.
type PrescriptionHandlers struct {
	Submit commands.SubmitPrescriptionCommandHandler
	Review commands.ReviewPrescriptionCommandHandler
	Expire commands.ExpirePrescriptionReviewCommandHandler
}

// PrescriptionCoordinator runs the photo -> pharmacy review -> customer
// notification sub-protocol.
type PrescriptionCoordinator struct {
	handlers      PrescriptionHandlers
	orders        ports.OrderRepository
	catalog       ports.CatalogRepository
	messenger     ports.Messenger
	recognizer    ports.TextRecognizer
	conversations *Conversations
	cart          *CartManager
	couriers      *CourierCoordinator
	reviewWindow  time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// PrescriptionDeps wires the coordinator.
type PrescriptionDeps struct {
	Handlers      PrescriptionHandlers
	Orders        ports.OrderRepository
	Catalog       ports.CatalogRepository
	Messenger     ports.Messenger
	Recognizer    ports.TextRecognizer
	Conversations *Conversations
	Cart          *CartManager
	Couriers      *CourierCoordinator
	ReviewWindow  time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
}

func NewPrescriptionCoordinator(deps PrescriptionDeps) *PrescriptionCoordinator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &PrescriptionCoordinator{
		handlers:      deps.Handlers,
		orders:        deps.Orders,
		catalog:       deps.Catalog,
		messenger:     deps.Messenger,
		recognizer:    deps.Recognizer,
		conversations: deps.Conversations,
		cart:          deps.Cart,
		couriers:      deps.Couriers,
		reviewWindow:  deps.ReviewWindow,
		now:           now,
		logger:        deps.Logger.With("component", "prescription_coordinator"),
	}
}

// SubmitPhoto attaches mediaRef to the customer's order under review (or a
// new one for the pending item's pharmacy) and asks the pharmacy to review it.
// state belongs to the sender and is saved by the caller.
func (p *PrescriptionCoordinator) SubmitPhoto(ctx context.Context, state *conversation.State, mediaRef string) error {
	pharmacyID := p.targetPharmacy(ctx, state)
	if pharmacyID == nil {
		return ErrNoPharmacySelected
	}

	cmd, err := commands.NewSubmitPrescriptionCommand(state.UserID, *pharmacyID, state.ActiveOrderID, mediaRef, p.now())
	if err != nil {
		return err
	}
	result, err := p.handlers.Submit.Handle(ctx, cmd)
	if err != nil {
		return err
	}

	orderID := result.OrderID
	state.ActiveOrderID = &orderID
	state.PrescriptionPhoto = mediaRef
	state.ResetToMenu()
	observability.OrdersTotal.WithLabelValues(order.PendingPrescription.String()).Inc()

	p.logger.InfoContext(ctx, "prescription submitted",
		"user", state.UserID, "order", orderID.String(), "created", result.Created)

	p.notify(ctx, state.UserID, replies.PrescriptionReceived)
	return p.requestReview(ctx, orderID, state.UserID, *pharmacyID, mediaRef)
}

// RequestReview asks the pharmacy to review an order that entered
// PENDING_PRESCRIPTION at checkout with an already stored photo.
func (p *PrescriptionCoordinator) RequestReview(ctx context.Context, state *conversation.State, orderID kernel.UUID) error {
	o, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.PrescriptionRef() == "" {
		state.AwaitPrescription()
		return nil
	}
	return p.requestReview(ctx, orderID, state.UserID, o.PharmacyID(), o.PrescriptionRef())
}

func (p *PrescriptionCoordinator) requestReview(
	ctx context.Context, orderID kernel.UUID, customerID string, pharmacyID kernel.UUID, mediaRef string,
) error {
	pharmacy, err := p.catalog.GetPharmacy(ctx, pharmacyID)
	if err != nil {
		return err
	}

	recognized := p.recognize(ctx, mediaRef)
	caption := replies.PharmacyReviewCaption(orderID, customerID, recognized)
	if _, err = p.messenger.SendImage(ctx, pharmacy.Phone, mediaRef, caption); err != nil {
		return err
	}
	if _, err = p.messenger.SendButtons(ctx, pharmacy.Phone, replies.PharmacyReviewPrompt,
		replies.ReviewButtons(orderID)); err != nil {
		return err
	}
	return nil
}

// recognize runs OCR; the text only helps the pharmacist, so failures are tolerated.
func (p *PrescriptionCoordinator) recognize(ctx context.Context, mediaRef string) string {
	if p.recognizer == nil {
		return ""
	}
	text, err := p.recognizer.Recognize(ctx, mediaRef)
	if err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("ocr").Inc()
		p.logger.WarnContext(ctx, "prescription text recognition failed", "error", err)
		return ""
	}
	return text
}

// Review applies the pharmacy's decision and updates the customer's
// conversation under the customer's lock.
func (p *PrescriptionCoordinator) Review(ctx context.Context, reviewerPhone string, orderID kernel.UUID, approve bool) error {
	cmd, err := commands.NewReviewPrescriptionCommand(orderID, reviewerPhone, approve, p.now())
	if err != nil {
		return err
	}

	result, err := p.handlers.Review.Handle(ctx, cmd)
	switch {
	case errors.Is(err, commands.ErrPrescriptionNotPending), commands.IsLostRace(err):
		p.notify(ctx, reviewerPhone, replies.ReviewAlreadyDone)
		return nil
	case errors.Is(err, commands.ErrReviewerMismatch):
		p.notify(ctx, reviewerPhone, replies.ReviewNotAllowed)
		return nil
	case err != nil:
		return err
	}

	observability.OrdersTotal.WithLabelValues(result.Status.String()).Inc()
	p.logger.InfoContext(ctx, "prescription reviewed",
		"order", orderID.String(), "approved", approve, "status", result.Status.String())
	p.notify(ctx, reviewerPhone, replies.ReviewRecorded(approve))

	if !approve {
		return p.closeRejected(ctx, result, replies.PrescriptionRejected)
	}

	if err = p.conversations.Update(ctx, result.CustomerID, func(ctx context.Context, s *conversation.State) error {
		p.applyApproval(ctx, s, result)
		return nil
	}); err != nil {
		return err
	}

	if result.ReadyForCourier {
		observability.OrdersTotal.WithLabelValues(order.PendingCourier.String()).Inc()
		p.notify(ctx, result.CustomerID, replies.SearchingCourier)
		return p.couriers.Assign(ctx, result.OrderID)
	}
	return nil
}

// applyApproval sets the approval flag and replays the pending item. The
// replay consumes the flag, so the approval unlocks exactly one gated add.
// An order that was already checked out has used the approval, and the flag
// stays unset.
func (p *PrescriptionCoordinator) applyApproval(ctx context.Context, s *conversation.State, result commands.ReviewResult) {
	s.PrescriptionApproved = !result.ReadyForCourier
	orderID := result.OrderID
	s.ActiveOrderID = &orderID
	s.ResetToMenu()

	pending := s.PendingItem
	s.PendingItem = nil
	if pending == nil || result.ReadyForCourier {
		p.notify(ctx, s.UserID, replies.PrescriptionApproved(nil))
		return
	}

	cart, err := p.cart.TryAddItem(ctx, s, pending.MedicineID, pending.Quantity)
	var stockErr *conversation.InsufficientStockError
	var mismatchErr *conversation.PharmacyMismatchError
	switch {
	case errors.As(err, &stockErr):
		p.notify(ctx, s.UserID, replies.PrescriptionApproved(nil)+"\n"+
			replies.InsufficientStock(stockErr.MedicineName, stockErr.Requested, stockErr.Available))
	case errors.As(err, &mismatchErr):
		p.notify(ctx, s.UserID, replies.PrescriptionApproved(nil)+"\n"+replies.PharmacyMismatch)
	case err != nil:
		p.logger.ErrorContext(ctx, "replay pending item", "user", s.UserID, "error", err)
		p.notify(ctx, s.UserID, replies.PrescriptionApproved(nil))
	default:
		p.notify(ctx, s.UserID, replies.PrescriptionApproved(cart))
	}
}

// ExpireOverdue rejects orders left in PENDING_PRESCRIPTION longer than the
// review window. It returns the number of orders rejected.
func (p *PrescriptionCoordinator) ExpireOverdue(ctx context.Context) (int, error) {
	pending, err := p.orders.GetAllInStatus(ctx, order.PendingPrescription)
	if err != nil {
		return 0, err
	}

	now := p.now()
	cutoff := now.Add(-p.reviewWindow)
	expired := 0
	for _, o := range pending {
		if !o.UpdatedAt().Before(cutoff) {
			continue
		}

		cmd, cmdErr := commands.NewExpirePrescriptionReviewCommand(o.ID(), cutoff, now)
		if cmdErr != nil {
			return expired, cmdErr
		}
		result, handleErr := p.handlers.Expire.Handle(ctx, cmd)
		if errors.Is(handleErr, commands.ErrReviewStillOpen) ||
			errors.Is(handleErr, commands.ErrPrescriptionNotPending) || commands.IsLostRace(handleErr) {
			continue
		}
		if handleErr != nil {
			p.logger.ErrorContext(ctx, "expire prescription review", "order", o.ID().String(), "error", handleErr)
			continue
		}

		observability.OrdersTotal.WithLabelValues(result.Status.String()).Inc()
		p.logger.InfoContext(ctx, "prescription review expired", "order", o.ID().String())
		if err = p.closeRejected(ctx, result, replies.PrescriptionExpired); err != nil {
			p.logger.ErrorContext(ctx, "reset conversation", "user", result.CustomerID, "error", err)
		}
		expired++
	}
	return expired, nil
}

// closeRejected clears the prescription context of the customer's
// conversation and tells them how to resubmit.
func (p *PrescriptionCoordinator) closeRejected(ctx context.Context, result commands.ReviewResult, text string) error {
	err := p.conversations.Update(ctx, result.CustomerID, func(_ context.Context, s *conversation.State) error {
		s.PrescriptionApproved = false
		s.PrescriptionPhoto = ""
		if s.ActiveOrderID != nil && s.ActiveOrderID.IsEqual(result.OrderID) {
			s.ActiveOrderID = nil
		}
		if s.PendingItem != nil {
			s.AwaitPrescription()
		} else {
			s.ResetToMenu()
		}
		return nil
	})
	p.notify(ctx, result.CustomerID, text)
	return err
}

// targetPharmacy is the pharmacy of the pending item, else of the order still
// waiting for a photo, else of the cart.
func (p *PrescriptionCoordinator) targetPharmacy(ctx context.Context, state *conversation.State) *kernel.UUID {
	if state.PendingItem != nil {
		id := state.PendingItem.PharmacyID
		return &id
	}
	if state.ActiveOrderID != nil {
		o, err := p.orders.Get(ctx, *state.ActiveOrderID)
		if err == nil && (o.Status() == order.Draft || o.Status() == order.PendingPrescription) {
			id := o.PharmacyID()
			return &id
		}
	}
	return state.PharmacyID
}

func (p *PrescriptionCoordinator) notify(ctx context.Context, to, text string) {
	if _, err := p.messenger.SendText(ctx, to, text); err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		p.logger.ErrorContext(ctx, "send message", "to", to, "error", err)
	}
}
