package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pharmadelivery/internal/core/application/replies"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/application/workflow"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/observability"
)

const (
	defaultSearchLimit = 5
	defaultDoctorLimit = 5
	nearbyPharmacies   = 3
)

// AppointmentBooker records an appointment request.
type AppointmentBooker interface {
	Handle(ctx context.Context, cmd commands.BookAppointmentCommand) (commands.BookAppointmentResult, error)
}

// Deps wires the dispatcher. Advisor and Dedupe are optional.
type Deps struct {
	Conversations *workflow.Conversations
	Catalog       ports.CatalogRepository
	Cart          *workflow.CartManager
	Prescriptions *workflow.PrescriptionCoordinator
	Couriers      *workflow.CourierCoordinator
	Appointments  AppointmentBooker
	Messenger     ports.Messenger
	Advisor       ports.Advisor
	Classifier    services.IntentClassifier
	Dedupe        ports.EventDeduplicator
	SearchLimit   int
	Now           func() time.Time
	Logger        *slog.Logger
}

// Dispatcher handles inbound events one user at a time. Failures of a
// collaborator never escape Dispatch: they are logged and answered with a
// generic apology.
type Dispatcher struct {
	conversations *workflow.Conversations
	catalog       ports.CatalogRepository
	cart          *workflow.CartManager
	prescriptions *workflow.PrescriptionCoordinator
	couriers      *workflow.CourierCoordinator
	appointments  AppointmentBooker
	messenger     ports.Messenger
	advisor       ports.Advisor
	classifier    services.IntentClassifier
	dedupe        ports.EventDeduplicator
	searchLimit   int
	now           func() time.Time
	logger        *slog.Logger

	routes routeTable
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Classifier == nil {
		deps.Classifier = services.NewKeywordClassifier()
	}
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = defaultSearchLimit
	}
	return &Dispatcher{
		conversations: deps.Conversations,
		catalog:       deps.Catalog,
		cart:          deps.Cart,
		prescriptions: deps.Prescriptions,
		couriers:      deps.Couriers,
		appointments:  deps.Appointments,
		messenger:     deps.Messenger,
		advisor:       deps.Advisor,
		classifier:    deps.Classifier,
		dedupe:        deps.Dedupe,
		searchLimit:   deps.SearchLimit,
		now:           deps.Now,
		logger:        deps.Logger.With("component", "dispatcher"),
		routes:        newRouteTable(),
	}
}

// Dispatch handles one event. It only returns an error for an event that
// cannot be attributed to a user.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		observability.EventsTotal.WithLabelValues(string(ev.Type), "invalid").Inc()
		return err
	}

	// voice notes are not transcribed; they get no reply and leave the state untouched
	if ev.Type == EventAudio {
		observability.EventsTotal.WithLabelValues(string(ev.Type), "dropped").Inc()
		d.logger.DebugContext(ctx, "audio event dropped", "from", ev.From)
		return nil
	}

	if d.isDuplicate(ctx, ev) {
		observability.EventsTotal.WithLabelValues(string(ev.Type), "duplicate").Inc()
		return nil
	}

	start := time.Now()
	outcome := "handled"
	err := d.conversations.Update(ctx, ev.From, func(ctx context.Context, s *conversation.State) error {
		if handleErr := d.handle(ctx, s, ev); handleErr != nil {
			outcome = "failed"
			d.fail(ctx, ev, handleErr)
		}
		return nil
	})
	if err != nil {
		outcome = "failed"
		d.fail(ctx, ev, err)
	}

	observability.EventsTotal.WithLabelValues(string(ev.Type), outcome).Inc()
	observability.EventDuration.WithLabelValues(string(ev.Type)).Observe(time.Since(start).Seconds())
	return nil
}

func (d *Dispatcher) isDuplicate(ctx context.Context, ev Event) bool {
	if d.dedupe == nil || ev.ID == "" {
		return false
	}
	first, err := d.dedupe.FirstSeen(ctx, ev.ID)
	if err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("dedupe").Inc()
		d.logger.WarnContext(ctx, "duplicate check failed", "event", ev.ID, "error", err)
		return false
	}
	if !first {
		d.logger.InfoContext(ctx, "duplicate event dropped", "event", ev.ID, "from", ev.From)
	}
	return !first
}

func (d *Dispatcher) fail(ctx context.Context, ev Event, err error) {
	d.logger.ErrorContext(ctx, "event handling failed",
		"event", ev.ID, "from", ev.From, "type", string(ev.Type), "error", err)
	if _, sendErr := d.messenger.SendText(ctx, ev.From, replies.GenericError); sendErr != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		d.logger.ErrorContext(ctx, "send apology", "to", ev.From, "error", sendErr)
	}
}

// handle routes ev for the user whose state is s; the caller holds the user's lock.
func (d *Dispatcher) handle(ctx context.Context, s *conversation.State, ev Event) error {
	if ev.Type == EventButton {
		if handled, err := d.roleButton(ctx, ev); handled {
			return err
		}
	}

	if !s.Welcomed {
		if err := d.welcome(ctx, s, ev); err != nil {
			return err
		}
	}

	switch ev.Type {
	case EventText:
		return d.text(ctx, s, ev)
	case EventImage:
		return d.image(ctx, s, ev)
	case EventLocation:
		return d.location(ctx, s, ev)
	case EventButton:
		return d.menuButton(ctx, s, ev)
	default:
		return d.reply(ctx, s.UserID, replies.UnsupportedMessage)
	}
}

func (d *Dispatcher) welcome(ctx context.Context, s *conversation.State, ev Event) error {
	s.Welcomed = true
	if s.Profile.Name == "" {
		s.Profile.Name = ev.ProfileName
	}
	return d.reply(ctx, s.UserID, replies.Welcome(s.Profile.Name))
}

func (d *Dispatcher) text(ctx context.Context, s *conversation.State, ev Event) error {
	intent := d.classifier.Classify(ev.Text)
	d.logger.DebugContext(ctx, "text classified",
		"from", ev.From, "step", string(s.Step), "intent", intent.Kind.String())
	return d.routes.lookup(s.Step, intent.Kind)(d, ctx, s, intent)
}

func (d *Dispatcher) reply(ctx context.Context, to, text string) error {
	if _, err := d.messenger.SendText(ctx, to, text); err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (d *Dispatcher) replyButtons(ctx context.Context, to, text string, buttons []ports.Button) error {
	if _, err := d.messenger.SendButtons(ctx, to, text, buttons); err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		return fmt.Errorf("send buttons: %w", err)
	}
	return nil
}
