package commands

import "pharmadelivery/internal/core/ports"

// Func factories adapt a plain constructor to the narrow factory interfaces
// above. Any ports.UnitOfWork satisfies every UoW interface, so the
// composition root wires one adapter factory through all of them.

type FuncOrderUoWFactory func() OrderUoW

func (f FuncOrderUoWFactory) Create() OrderUoW {
	return f()
}

type FuncOrderCatalogUoWFactory func() OrderCatalogUoW

func (f FuncOrderCatalogUoWFactory) Create() OrderCatalogUoW {
	return f()
}

type FuncCourierUoWFactory func() CourierUoW

func (f FuncCourierUoWFactory) Create() CourierUoW {
	return f()
}

type FuncAppointmentUoWFactory func() AppointmentUoW

func (f FuncAppointmentUoWFactory) Create() AppointmentUoW {
	return f()
}

type FuncUoWFactory func() UoW

func (f FuncUoWFactory) Create() UoW {
	return f()
}

// Handlers holds one instance of every command handler.
type Handlers struct {
	Checkout           CheckoutCommandHandler
	AssignCourier      AssignCourierCommandHandler
	RespondToOffer     RespondToOfferCommandHandler
	ExpireOffer        ExpireOfferCommandHandler
	AdvanceDelivery    AdvanceDeliveryCommandHandler
	SubmitPrescription SubmitPrescriptionCommandHandler
	ReviewPrescription ReviewPrescriptionCommandHandler
	ExpireReview       ExpirePrescriptionReviewCommandHandler
	CreateCourier      CreateCourierCommandHandler
	BookAppointment    BookAppointmentCommandHandler
}

// NewHandlers builds every handler over units of work created by factory.
func NewHandlers(factory ports.UnitOfWorkFactory) Handlers {
	orderUoW := FuncOrderUoWFactory(func() OrderUoW { return factory.Create() })
	orderCatalogUoW := FuncOrderCatalogUoWFactory(func() OrderCatalogUoW { return factory.Create() })
	courierUoW := FuncCourierUoWFactory(func() CourierUoW { return factory.Create() })
	appointmentUoW := FuncAppointmentUoWFactory(func() AppointmentUoW { return factory.Create() })
	uow := FuncUoWFactory(func() UoW { return factory.Create() })

	return Handlers{
		Checkout:           NewCheckoutCommandHandler(orderCatalogUoW),
		AssignCourier:      NewAssignCourierCommandHandler(uow),
		RespondToOffer:     NewRespondToOfferCommandHandler(uow),
		ExpireOffer:        NewExpireOfferCommandHandler(uow),
		AdvanceDelivery:    NewAdvanceDeliveryCommandHandler(uow),
		SubmitPrescription: NewSubmitPrescriptionCommandHandler(orderUoW),
		ReviewPrescription: NewReviewPrescriptionCommandHandler(orderCatalogUoW),
		ExpireReview:       NewExpirePrescriptionReviewCommandHandler(orderUoW),
		CreateCourier:      NewCreateCourierCommandHandler(courierUoW),
		BookAppointment:    NewBookAppointmentCommandHandler(appointmentUoW),
	}
}
