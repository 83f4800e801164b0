package dialogue

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/application/replies"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/pkg/errs"
)

// roleButton handles the buttons sent to pharmacies and couriers. They carry
// an order id and do not touch the sender's own dialogue.
func (d *Dispatcher) roleButton(ctx context.Context, ev Event) (bool, error) {
	action, orderID := replies.ParseButtonID(ev.ButtonID)
	if orderID == nil {
		return false, nil
	}

	switch action {
	case replies.ActionRxAccept, replies.ActionRxReject:
		err := d.prescriptions.Review(ctx, ev.From, *orderID, action == replies.ActionRxAccept)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return true, d.reply(ctx, ev.From, replies.UnknownButton)
		}
		return true, err

	case replies.ActionOfferAccept, replies.ActionOfferRefuse:
		err := d.couriers.Respond(ctx, ev.From, *orderID, action == replies.ActionOfferAccept)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return true, d.reply(ctx, ev.From, replies.OfferNoLongerValid)
		}
		return true, err

	case replies.ActionPickup, replies.ActionDelivered:
		stage := commands.StagePickedUp
		if action == replies.ActionDelivered {
			stage = commands.StageDelivered
		}
		err := d.couriers.Advance(ctx, ev.From, *orderID, stage)
		switch {
		case errors.Is(err, order.ErrCourierMismatch),
			errors.Is(err, errs.ErrValueIsInvalid),
			errors.Is(err, errs.ErrObjectNotFound),
			commands.IsLostRace(err):
			return true, d.reply(ctx, ev.From, replies.DeliveryStepNotAllowed)
		default:
			return true, err
		}
	}
	return false, nil
}

// menuButton handles the customer's own buttons. Anything unrecognized is
// answered with a rejection and sends the user back to MENU.
func (d *Dispatcher) menuButton(ctx context.Context, s *conversation.State, ev Event) error {
	action, _ := replies.ParseButtonID(ev.ButtonID)
	switch action {
	case replies.ActionMenuSearch:
		return d.askMedicine(ctx, s)
	case replies.ActionMenuOnDuty:
		return d.onDuty(ctx, s, services.Intent{Kind: services.IntentOnDuty})
	case replies.ActionMenuDoctor:
		return d.listDoctors(ctx, s, services.Intent{Kind: services.IntentAppointment})
	case replies.ActionCartCheckout:
		return d.beginCheckout(ctx, s, services.Intent{Kind: services.IntentCheckout})
	case replies.ActionCartCancel:
		return d.cancel(ctx, s, services.Intent{Kind: services.IntentCancel})
	default:
		d.logger.InfoContext(ctx, "unknown button", "from", ev.From, "button", ev.ButtonID)
		s.ResetToMenu()
		return d.reply(ctx, s.UserID, replies.UnknownButton)
	}
}
