package replies

import (
	"strings"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/ports"
)

// Button id prefixes. Role buttons carry the order id after the colon.
const (
	ActionRxAccept     = "rx_accept"
	ActionRxReject     = "rx_reject"
	ActionOfferAccept  = "offer_accept"
	ActionOfferRefuse  = "offer_refuse"
	ActionPickup       = "pickup"
	ActionDelivered    = "delivered"
	ActionMenuSearch   = "menu_search"
	ActionMenuOnDuty   = "menu_onduty"
	ActionMenuDoctor   = "menu_doctor"
	ActionCartCheckout = "cart_checkout"
	ActionCartCancel   = "cart_cancel"
)

// ButtonID joins an action and an order id.
func ButtonID(action string, orderID kernel.UUID) string {
	return action + ":" + orderID.String()
}

// ParseButtonID splits "action:order-id". Menu buttons have no order id.
func ParseButtonID(id string) (string, *kernel.UUID) {
	action, rest, found := strings.Cut(id, ":")
	if !found {
		return action, nil
	}
	orderID, err := kernel.UUIDFromString(rest)
	if err != nil {
		return action, nil
	}
	return action, &orderID
}

func MenuButtons() []ports.Button {
	return []ports.Button{
		{ID: ActionMenuSearch, Title: "Médicament"},
		{ID: ActionMenuOnDuty, Title: "Pharmacie de garde"},
		{ID: ActionMenuDoctor, Title: "Rendez-vous"},
	}
}

func CartButtons() []ports.Button {
	return []ports.Button{
		{ID: ActionCartCheckout, Title: "Valider"},
		{ID: ActionCartCancel, Title: "Annuler"},
	}
}

func ReviewButtons(orderID kernel.UUID) []ports.Button {
	return []ports.Button{
		{ID: ButtonID(ActionRxAccept, orderID), Title: "Valider"},
		{ID: ButtonID(ActionRxReject, orderID), Title: "Refuser"},
	}
}

func OfferButtons(orderID kernel.UUID) []ports.Button {
	return []ports.Button{
		{ID: ButtonID(ActionOfferAccept, orderID), Title: "Accepter"},
		{ID: ButtonID(ActionOfferRefuse, orderID), Title: "Refuser"},
	}
}

func DeliveryButtons(orderID kernel.UUID) []ports.Button {
	return []ports.Button{
		{ID: ButtonID(ActionPickup, orderID), Title: "Commande récupérée"},
		{ID: ButtonID(ActionDelivered, orderID), Title: "Livrée"},
	}
}
