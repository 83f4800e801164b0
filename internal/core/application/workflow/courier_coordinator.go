package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pharmadelivery/internal/core/application/replies"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/observability"

	"golang.org/x/sync/errgroup"
)

// CourierHandlers groups the command handlers the courier coordinator drives.
type CourierHandlers struct {
	Assign  commands.AssignCourierCommandHandler
	Respond commands.RespondToOfferCommandHandler
	Expire  commands.ExpireOfferCommandHandler
	Advance commands.AdvanceDeliveryCommandHandler
}

// CourierConfig holds the assignment policy.
type CourierConfig struct {
	OfferWindow    time.Duration
	CandidateLimit int
	SupportPhone   string
}

// CourierCoordinator runs the offer protocol: one outstanding offer per
// order, a timer per offer, the next candidate after a refusal or timeout and
// escalation once the candidates run out. Every order write is a conditional
// write, so an accept racing a timeout resolves to exactly one winner; the
// loser is logged and dropped.
type CourierCoordinator struct {
	handlers  CourierHandlers
	orders    ports.OrderRepository
	catalog   ports.CatalogRepository
	messenger ports.Messenger
	cfg       CourierConfig
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

func NewCourierCoordinator(
	handlers CourierHandlers,
	orders ports.OrderRepository,
	catalog ports.CatalogRepository,
	messenger ports.Messenger,
	cfg CourierConfig,
	now func() time.Time,
	logger *slog.Logger,
) *CourierCoordinator {
	if now == nil {
		now = time.Now
	}
	return &CourierCoordinator{
		handlers:  handlers,
		orders:    orders,
		catalog:   catalog,
		messenger: messenger,
		cfg:       cfg,
		now:       now,
		logger:    logger.With("component", "courier_coordinator"),
		timers:    make(map[string]*time.Timer),
	}
}

// Assign offers orderID to its next candidate. With no free courier the
// customer is told and the order stays PENDING_COURIER for the retry job.
func (c *CourierCoordinator) Assign(ctx context.Context, orderID kernel.UUID) error {
	err := c.assign(ctx, orderID)
	if errors.Is(err, commands.ErrNoCourierAvailable) {
		c.notify(ctx, c.customerOf(ctx, orderID), replies.NoCourierAvailable)
		return err
	}
	return err
}

func (c *CourierCoordinator) assign(ctx context.Context, orderID kernel.UUID) error {
	cmd, err := commands.NewAssignCourierCommand(orderID, c.cfg.CandidateLimit, c.now())
	if err != nil {
		return err
	}

	result, err := c.handlers.Assign.Handle(ctx, cmd)
	switch {
	case commands.IsLostRace(err),
		errors.Is(err, order.ErrOfferOutstanding),
		errors.Is(err, commands.ErrOrderNotAwaitingCourier):
		c.logger.DebugContext(ctx, "assignment skipped", "order", orderID.String(), "reason", err.Error())
		observability.CourierOffersTotal.WithLabelValues("lost_race").Inc()
		return nil
	case err != nil:
		return err
	}

	if result.Unassignable {
		observability.OrdersTotal.WithLabelValues(order.Unassignable.String()).Inc()
		c.logger.WarnContext(ctx, "order unassignable",
			"order", orderID.String(), "attempts", len(result.Order.Attempts()))
		return c.escalate(ctx, result)
	}

	observability.CourierOffersTotal.WithLabelValues("offered").Inc()
	c.logger.InfoContext(ctx, "courier offered",
		"order", orderID.String(), "courier", result.CourierID.String(), "attempt", result.AttemptNo)

	c.arm(orderID, result.CourierID)
	c.sendOffer(ctx, result)
	return nil
}

func (c *CourierCoordinator) sendOffer(ctx context.Context, result commands.AssignCourierResult) {
	o := result.Order
	pharmacy, err := c.catalog.GetPharmacy(ctx, o.PharmacyID())
	if err != nil {
		c.logger.ErrorContext(ctx, "load pharmacy for offer", "order", o.ID().String(), "error", err)
		return
	}

	text := replies.CourierOffer(o.ID(), pharmacy, o.Total(), o.Fee())
	if _, err = c.messenger.SendButtons(ctx, result.CourierPhone, text, replies.OfferButtons(o.ID())); err != nil {
		// the offer timer moves on to the next candidate
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		c.logger.ErrorContext(ctx, "send courier offer", "order", o.ID().String(), "error", err)
	}
}

// escalate tells the customer and the support channel concurrently.
func (c *CourierCoordinator) escalate(ctx context.Context, result commands.AssignCourierResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := c.messenger.SendText(gctx, result.CustomerID, replies.Unassignable)
		return err
	})
	if c.cfg.SupportPhone != "" {
		g.Go(func() error {
			_, err := c.messenger.SendText(gctx, c.cfg.SupportPhone,
				replies.UnassignableSupport(result.OrderID, result.CustomerID))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		c.logger.ErrorContext(ctx, "escalate unassignable order", "order", result.OrderID.String(), "error", err)
	}
	return nil
}

// Respond applies a courier's accept or refuse button.
func (c *CourierCoordinator) Respond(ctx context.Context, courierPhone string, orderID kernel.UUID, accept bool) error {
	cmd, err := commands.NewRespondToOfferCommand(orderID, courierPhone, accept, c.now())
	if err != nil {
		return err
	}

	result, err := c.handlers.Respond.Handle(ctx, cmd)
	if commands.IsLostRace(err) {
		observability.CourierOffersTotal.WithLabelValues("lost_race").Inc()
		c.logger.InfoContext(ctx, "late offer reply ignored", "order", orderID.String(), "courier", courierPhone)
		c.notify(ctx, courierPhone, replies.OfferNoLongerValid)
		return nil
	}
	if err != nil {
		return err
	}

	c.disarm(orderID)

	if !accept {
		observability.CourierOffersTotal.WithLabelValues("refused").Inc()
		c.notify(ctx, courierPhone, replies.OfferRefused)
		return c.next(ctx, orderID)
	}

	observability.CourierOffersTotal.WithLabelValues("accepted").Inc()
	observability.OrdersTotal.WithLabelValues(result.Status.String()).Inc()
	c.logger.InfoContext(ctx, "courier assigned", "order", orderID.String(), "courier", result.CourierID.String())

	c.notify(ctx, result.CustomerID, replies.CourierAssigned(result.CourierName, result.CourierPhone))
	var delivery *kernel.GeoPoint
	if o, getErr := c.orders.Get(ctx, orderID); getErr == nil {
		delivery = o.Delivery()
	}
	if _, err = c.messenger.SendButtons(ctx, courierPhone,
		replies.CourierMission(orderID, delivery), replies.DeliveryButtons(orderID)); err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		c.logger.ErrorContext(ctx, "send mission", "order", orderID.String(), "error", err)
	}
	return nil
}

// Expire closes courierID's offer on orderID as timed out and moves on.
func (c *CourierCoordinator) Expire(ctx context.Context, orderID, courierID kernel.UUID) error {
	cmd, err := commands.NewExpireOfferCommand(orderID, courierID, c.now())
	if err != nil {
		return err
	}

	result, err := c.handlers.Expire.Handle(ctx, cmd)
	if commands.IsLostRace(err) {
		observability.CourierOffersTotal.WithLabelValues("lost_race").Inc()
		c.logger.DebugContext(ctx, "expiry lost the race", "order", orderID.String())
		return nil
	}
	if err != nil {
		return err
	}

	c.disarm(orderID)
	observability.CourierOffersTotal.WithLabelValues("timed_out").Inc()
	if result.CourierPhone != "" {
		c.notify(ctx, result.CourierPhone, replies.OfferExpired)
	}
	return c.next(ctx, orderID)
}

// Advance records a pickup or delivery reported by the assigned courier.
func (c *CourierCoordinator) Advance(
	ctx context.Context, courierPhone string, orderID kernel.UUID, stage commands.DeliveryStage,
) error {
	cmd, err := commands.NewAdvanceDeliveryCommand(orderID, courierPhone, stage, c.now())
	if err != nil {
		return err
	}

	result, err := c.handlers.Advance.Handle(ctx, cmd)
	if err != nil {
		return err
	}

	observability.OrdersTotal.WithLabelValues(result.Status.String()).Inc()
	c.notify(ctx, courierPhone, replies.DeliveryStepRecorded)
	if stage == commands.StagePickedUp {
		c.notify(ctx, result.CustomerID, replies.EnRoute)
	} else {
		c.notify(ctx, result.CustomerID, replies.Delivered)
	}
	return nil
}

// Sweep expires offers whose timer was lost and retries orders waiting
// without an offer. It returns the number of orders acted on.
func (c *CourierCoordinator) Sweep(ctx context.Context) (int, error) {
	pending, err := c.orders.GetAllInStatus(ctx, order.PendingCourier)
	if err != nil {
		return 0, err
	}

	now := c.now()
	acted := 0
	for _, o := range pending {
		if ctx.Err() != nil {
			return acted, ctx.Err()
		}

		latest, ok := o.LatestAttempt()
		switch {
		case ok && latest.IsOutstanding():
			if now.Before(latest.ExpiresAt(c.cfg.OfferWindow)) {
				continue
			}
			err = c.Expire(ctx, o.ID(), latest.CourierID)
		default:
			err = c.assign(ctx, o.ID())
		}

		if errors.Is(err, commands.ErrNoCourierAvailable) {
			continue
		}
		if err != nil {
			c.logger.ErrorContext(ctx, "sweep order", "order", o.ID().String(), "error", err)
			continue
		}
		acted++
	}
	return acted, nil
}

// Close stops pending offer timers and waits for running expiries. Offers
// left open are picked up by Sweep after a restart.
func (c *CourierCoordinator) Close() {
	c.mu.Lock()
	c.closed = true
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// next offers the order to the following candidate after a refusal or expiry.
func (c *CourierCoordinator) next(ctx context.Context, orderID kernel.UUID) error {
	err := c.assign(ctx, orderID)
	if errors.Is(err, commands.ErrNoCourierAvailable) {
		c.notify(ctx, c.customerOf(ctx, orderID), replies.NoCourierAvailable)
		return nil
	}
	return err
}

func (c *CourierCoordinator) arm(orderID, courierID kernel.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	key := orderID.String()
	if old, ok := c.timers[key]; ok {
		old.Stop()
	}
	c.timers[key] = time.AfterFunc(c.cfg.OfferWindow, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.wg.Add(1)
		c.mu.Unlock()
		defer c.wg.Done()

		ctx := context.Background()
		if err := c.Expire(ctx, orderID, courierID); err != nil {
			c.logger.ErrorContext(ctx, "expire offer", "order", orderID.String(), "error", err)
		}
	})
}

func (c *CourierCoordinator) disarm(orderID kernel.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := orderID.String()
	if t, ok := c.timers[key]; ok {
		t.Stop()
		delete(c.timers, key)
	}
}

// PendingTimers is the number of armed offer timers.
func (c *CourierCoordinator) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *CourierCoordinator) customerOf(ctx context.Context, orderID kernel.UUID) string {
	o, err := c.orders.Get(ctx, orderID)
	if err != nil {
		return ""
	}
	return o.CustomerID()
}

func (c *CourierCoordinator) notify(ctx context.Context, to, text string) {
	if to == "" {
		return
	}
	if _, err := c.messenger.SendText(ctx, to, text); err != nil {
		observability.CollaboratorFailuresTotal.WithLabelValues("messenger").Inc()
		c.logger.ErrorContext(ctx, "send message", "to", to, "error", err)
	}
}
