package dialogue

import (
	"context"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/services"
)

// route handles one classified text message.
type route func(d *Dispatcher, ctx context.Context, s *conversation.State, intent services.Intent) error

type stepRoutes struct {
	byIntent map[services.IntentKind]route
	fallback route
}

// routeTable maps (step, intent) to a handler. Global intents apply in every
// step unless the step overrides them.
type routeTable struct {
	global map[services.IntentKind]route
	steps  map[conversation.Step]stepRoutes
}

func newRouteTable() routeTable {
	return routeTable{
		global: map[services.IntentKind]route{
			services.IntentGreeting:       (*Dispatcher).showMenu,
			services.IntentCancel:         (*Dispatcher).cancel,
			services.IntentViewCart:       (*Dispatcher).viewCart,
			services.IntentCheckout:       (*Dispatcher).beginCheckout,
			services.IntentOrderSelection: (*Dispatcher).selectItem,
			services.IntentOnDuty:         (*Dispatcher).onDuty,
			services.IntentAppointment:    (*Dispatcher).listDoctors,
			services.IntentSearch:         (*Dispatcher).search,
		},
		steps: map[conversation.Step]stepRoutes{
			conversation.StepMenu: {
				byIntent: map[services.IntentKind]route{
					services.IntentNumber: (*Dispatcher).menuChoice,
				},
				fallback: (*Dispatcher).searchOrAdvise,
			},
			conversation.StepAwaitingMedicineSearch: {
				fallback: (*Dispatcher).search,
			},
			conversation.StepAwaitingOrderSelection: {
				byIntent: map[services.IntentKind]route{
					services.IntentNumber: (*Dispatcher).selectItem,
				},
				fallback: (*Dispatcher).searchOrAdvise,
			},
			conversation.StepAwaitingPrescription: {
				fallback: (*Dispatcher).remindPrescription,
			},
			conversation.StepAwaitingDeliveryLocation: {
				fallback: (*Dispatcher).askLocation,
			},
			conversation.StepAwaitingDoctorSelection: {
				byIntent: map[services.IntentKind]route{
					services.IntentNumber: (*Dispatcher).bookDoctor,
				},
				fallback: (*Dispatcher).listDoctors,
			},
		},
	}
}

func (t routeTable) lookup(step conversation.Step, kind services.IntentKind) route {
	sr, ok := t.steps[step]
	if !ok {
		sr = t.steps[conversation.StepMenu]
	}
	if r, ok := sr.byIntent[kind]; ok {
		return r
	}
	if r, ok := t.global[kind]; ok {
		return r
	}
	return sr.fallback
}
