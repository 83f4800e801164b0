package dialogue

import (
	"context"
	"errors"
	"slices"

	"pharmadelivery/internal/core/application/replies"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/application/workflow"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/observability"
	"pharmadelivery/internal/pkg/errs"
)

func (d *Dispatcher) showMenu(ctx context.Context, s *conversation.State, _ services.Intent) error {
	s.ResetToMenu()
	return d.replyButtons(ctx, s.UserID, replies.Menu, replies.MenuButtons())
}

// menuChoice maps "1", "2", "3" to the menu buttons.
func (d *Dispatcher) menuChoice(ctx context.Context, s *conversation.State, intent services.Intent) error {
	switch intent.Numbers[0] {
	case 1:
		return d.askMedicine(ctx, s)
	case 2:
		return d.onDuty(ctx, s, intent)
	case 3:
		return d.listDoctors(ctx, s, intent)
	default:
		return d.showMenu(ctx, s, intent)
	}
}

func (d *Dispatcher) askMedicine(ctx context.Context, s *conversation.State) error {
	s.Step = conversation.StepAwaitingMedicineSearch
	return d.reply(ctx, s.UserID, replies.AskMedicineName)
}

func (d *Dispatcher) search(ctx context.Context, s *conversation.State, intent services.Intent) error {
	if intent.Query == "" {
		return d.askMedicine(ctx, s)
	}
	results, err := d.findMedicines(ctx, intent.Query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		s.Step = conversation.StepAwaitingMedicineSearch
		return d.reply(ctx, s.UserID, replies.NoResults(intent.Query))
	}
	return d.showResults(ctx, s, results)
}

// searchOrAdvise treats unclassified text as a medicine name first and
// falls back to the advisor when the catalog has nothing for it.
func (d *Dispatcher) searchOrAdvise(ctx context.Context, s *conversation.State, intent services.Intent) error {
	results, err := d.findMedicines(ctx, intent.Query)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		return d.showResults(ctx, s, results)
	}
	return d.advise(ctx, s, intent)
}

func (d *Dispatcher) findMedicines(ctx context.Context, query string) ([]conversation.SearchResult, error) {
	if query == "" {
		return nil, nil
	}
	medicines, err := d.catalog.SearchMedicines(ctx, query, d.searchLimit)
	if err != nil {
		return nil, err
	}

	names := make(map[kernel.UUID]string)
	results := make([]conversation.SearchResult, 0, len(medicines))
	for _, m := range medicines {
		name, ok := names[m.PharmacyID]
		if !ok {
			pharmacy, getErr := d.catalog.GetPharmacy(ctx, m.PharmacyID)
			if getErr != nil {
				return nil, getErr
			}
			name = pharmacy.Name
			names[m.PharmacyID] = name
		}
		results = append(results, conversation.SearchResult{
			MedicineID:           m.ID,
			PharmacyID:           m.PharmacyID,
			PharmacyName:         name,
			Name:                 m.Name,
			Price:                m.Price,
			Stock:                m.Stock,
			RequiresPrescription: m.RequiresPrescription,
		})
	}
	return results, nil
}

func (d *Dispatcher) showResults(ctx context.Context, s *conversation.State, results []conversation.SearchResult) error {
	s.LastResults = results
	s.Step = conversation.StepAwaitingOrderSelection
	return d.reply(ctx, s.UserID, replies.SearchResults(results))
}

// selectItem adds line n of the last search with quantity q ("COMMANDER n q").
func (d *Dispatcher) selectItem(ctx context.Context, s *conversation.State, intent services.Intent) error {
	if len(intent.Numbers) == 0 {
		return d.reply(ctx, s.UserID, replies.InvalidSelection)
	}
	n, quantity := intent.Numbers[0], 1
	if len(intent.Numbers) > 1 {
		quantity = intent.Numbers[1]
	}
	if n < 1 || n > len(s.LastResults) {
		return d.reply(ctx, s.UserID, replies.InvalidSelection)
	}
	picked := s.LastResults[n-1]

	cart, err := d.cart.TryAddItem(ctx, s, picked.MedicineID, quantity)
	if err == nil {
		return d.replyButtons(ctx, s.UserID, replies.Cart(cart), replies.CartButtons())
	}

	var rxErr *conversation.PrescriptionRequiredError
	var stockErr *conversation.InsufficientStockError
	switch {
	case errors.As(err, &rxErr):
		return d.reply(ctx, s.UserID, replies.PrescriptionRequired(rxErr.MedicineName, rxErr.Instructions))
	case errors.Is(err, conversation.ErrPharmacyMismatch):
		return d.reply(ctx, s.UserID, replies.PharmacyMismatch)
	case errors.As(err, &stockErr):
		return d.reply(ctx, s.UserID,
			replies.InsufficientStock(stockErr.MedicineName, stockErr.Requested, stockErr.Available))
	case errors.Is(err, errs.ErrObjectNotFound), errors.Is(err, errs.ErrValueIsInvalid):
		return d.reply(ctx, s.UserID, replies.InvalidSelection)
	default:
		return err
	}
}

func (d *Dispatcher) viewCart(ctx context.Context, s *conversation.State, _ services.Intent) error {
	if len(s.Cart) == 0 {
		return d.reply(ctx, s.UserID, replies.EmptyCart)
	}
	return d.replyButtons(ctx, s.UserID, replies.Cart(s.Cart), replies.CartButtons())
}

func (d *Dispatcher) cancel(ctx context.Context, s *conversation.State, _ services.Intent) error {
	s.ClearCart()
	s.PendingItem = nil
	s.LastResults = nil
	s.LastDoctors = nil
	s.ResetToMenu()
	return d.reply(ctx, s.UserID, replies.CartCancelled)
}

func (d *Dispatcher) beginCheckout(ctx context.Context, s *conversation.State, _ services.Intent) error {
	if len(s.Cart) == 0 {
		return d.reply(ctx, s.UserID, replies.EmptyCart)
	}
	return d.askLocation(ctx, s, services.Intent{})
}

func (d *Dispatcher) askLocation(ctx context.Context, s *conversation.State, _ services.Intent) error {
	s.Step = conversation.StepAwaitingDeliveryLocation
	return d.reply(ctx, s.UserID, replies.AskDeliveryLocation)
}

func (d *Dispatcher) remindPrescription(ctx context.Context, s *conversation.State, _ services.Intent) error {
	return d.reply(ctx, s.UserID, replies.AwaitingPrescriptionPhoto)
}

func (d *Dispatcher) location(ctx context.Context, s *conversation.State, ev Event) error {
	s.Profile.LastLocation = ev.Location
	if s.Step == conversation.StepAwaitingDeliveryLocation {
		return d.checkout(ctx, s, *ev.Location)
	}
	return d.onDuty(ctx, s, services.Intent{Kind: services.IntentOnDuty})
}

// checkout places the order and starts the follow-up protocol for its status.
func (d *Dispatcher) checkout(ctx context.Context, s *conversation.State, delivery kernel.GeoPoint) error {
	result, fee, err := d.cart.Checkout(ctx, s, delivery)

	var stockErr *conversation.InsufficientStockError
	switch {
	case errors.Is(err, workflow.ErrEmptyCart):
		s.ResetToMenu()
		return d.reply(ctx, s.UserID, replies.EmptyCart)
	case errors.Is(err, workflow.ErrOutOfServiceArea):
		return d.reply(ctx, s.UserID, replies.OutOfServiceArea)
	case errors.As(err, &stockErr):
		s.ResetToMenu()
		return d.reply(ctx, s.UserID,
			replies.InsufficientStock(stockErr.MedicineName, stockErr.Requested, stockErr.Available))
	case err != nil:
		return err
	}
	observability.OrdersTotal.WithLabelValues(result.Status.String()).Inc()

	if result.Status == order.PendingPrescription {
		if err = d.reply(ctx, s.UserID, replies.OrderAwaitingPrescription(result.OrderID, result.Total)); err != nil {
			return err
		}
		if err = d.prescriptions.RequestReview(ctx, s, result.OrderID); err != nil {
			return err
		}
		if s.Step == conversation.StepAwaitingPrescription {
			return d.reply(ctx, s.UserID, conversation.PrescriptionPhotoInstructions)
		}
		return nil
	}

	if err = d.reply(ctx, s.UserID, replies.OrderAwaitingCourier(result.OrderID, result.Total, fee)); err != nil {
		return err
	}
	err = d.couriers.Assign(ctx, result.OrderID)
	if errors.Is(err, commands.ErrNoCourierAvailable) {
		return nil
	}
	return err
}

func (d *Dispatcher) image(ctx context.Context, s *conversation.State, ev Event) error {
	if s.Step != conversation.StepAwaitingPrescription && !s.AwaitingPhoto {
		return d.reply(ctx, s.UserID, replies.PhotoHint)
	}
	err := d.prescriptions.SubmitPhoto(ctx, s, ev.MediaRef)
	if errors.Is(err, workflow.ErrNoPharmacySelected) {
		s.ResetToMenu()
		return d.reply(ctx, s.UserID, replies.NoPharmacyForPrescription)
	}
	return err
}

// onDuty lists on-duty pharmacies, nearest first when the user shared a location.
func (d *Dispatcher) onDuty(ctx context.Context, s *conversation.State, _ services.Intent) error {
	s.ResetToMenu()
	pharmacies, err := d.catalog.ListPharmacies(ctx, ports.PharmacyFilter{OnDutyOnly: true})
	if err != nil {
		return err
	}
	if len(pharmacies) == 0 {
		return d.reply(ctx, s.UserID, replies.NoOnDutyPharmacy)
	}

	if from := s.Profile.LastLocation; from != nil {
		slices.SortStableFunc(pharmacies, func(a, b catalog.Pharmacy) int {
			da, db := from.DistanceKm(a.Location), from.DistanceKm(b.Location)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			default:
				return 0
			}
		})
		pharmacies = pharmacies[:min(len(pharmacies), nearbyPharmacies)]
	}
	return d.reply(ctx, s.UserID, replies.OnDutyPharmacies(pharmacies))
}

func (d *Dispatcher) listDoctors(ctx context.Context, s *conversation.State, _ services.Intent) error {
	doctors, err := d.catalog.ListDoctors(ctx, defaultDoctorLimit)
	if err != nil {
		return err
	}
	if len(doctors) == 0 {
		s.ResetToMenu()
		return d.reply(ctx, s.UserID, replies.NoDoctor)
	}

	s.LastDoctors = make([]conversation.DoctorChoice, 0, len(doctors))
	for _, doc := range doctors {
		s.LastDoctors = append(s.LastDoctors, conversation.DoctorChoice{
			DoctorID: doc.ID, Name: doc.Name, Specialty: doc.Specialty,
		})
	}
	s.Step = conversation.StepAwaitingDoctorSelection
	return d.reply(ctx, s.UserID, replies.Doctors(s.LastDoctors))
}

func (d *Dispatcher) bookDoctor(ctx context.Context, s *conversation.State, intent services.Intent) error {
	n := intent.Numbers[0]
	if n < 1 || n > len(s.LastDoctors) {
		return d.reply(ctx, s.UserID, replies.InvalidSelection)
	}
	doctor := s.LastDoctors[n-1]

	cmd, err := commands.NewBookAppointmentCommand(s.UserID, s.Profile.Name, doctor.DoctorID, d.now())
	if err != nil {
		return err
	}
	result, err := d.appointments.Handle(ctx, cmd)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return d.listDoctors(ctx, s, intent)
	}
	if err != nil {
		return err
	}

	d.logger.InfoContext(ctx, "appointment requested",
		"user", s.UserID, "appointment", result.AppointmentID.String(), "doctor", doctor.DoctorID.String())
	s.LastDoctors = nil
	s.ResetToMenu()
	return d.reply(ctx, s.UserID, replies.AppointmentRequested(result.DoctorName, result.Specialty))
}

// advise asks the language model; its failure degrades to a static answer.
func (d *Dispatcher) advise(ctx context.Context, s *conversation.State, intent services.Intent) error {
	s.ResetToMenu()
	if d.advisor == nil || intent.Query == "" {
		return d.reply(ctx, s.UserID, replies.AdviceFallback)
	}
	answer, err := d.advisor.Advise(ctx, intent.Query)
	if err != nil || answer == "" {
		if err != nil {
			observability.CollaboratorFailuresTotal.WithLabelValues("advisor").Inc()
			d.logger.WarnContext(ctx, "advisor failed", "user", s.UserID, "error", err)
		}
		return d.reply(ctx, s.UserID, replies.AdviceFallback)
	}
	return d.reply(ctx, s.UserID, answer)
}
