package workflow_test

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pharmadelivery/internal/adapters/out/convstore"
	"pharmadelivery/internal/adapters/out/memory"
	"pharmadelivery/internal/adapters/out/recorder"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/application/workflow"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/pkg/keyedmutex"

	"github.com/stretchr/testify/require"
)

const (
	customerPhone = "2250701020304"
	pharmacyPhone = "2250102030405"
	supportPhone  = "2250100000000"
)

var (
	plateau = kernel.MustNewGeoPoint(5.3237, -4.0176)
	cocody  = kernel.MustNewGeoPoint(5.3599, -3.9870)
	bouake  = kernel.MustNewGeoPoint(7.6906, -5.0303)
)

// clock is a settable time source shared by every component of a harness.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t *testing.T

	store         *memory.Store
	factory       *memory.UnitOfWorkFactory
	conversations *workflow.Conversations
	convStore     *convstore.MemoryStore
	messenger     *recorder.Messenger
	clock         *clock

	cart          *workflow.CartManager
	couriers      *workflow.CourierCoordinator
	prescriptions *workflow.PrescriptionCoordinator

	pharmacy    catalog.Pharmacy
	paracetamol catalog.Medicine
	amoxicillin catalog.Medicine
}

type harnessOption func(*workflow.CourierConfig)

func withOfferWindow(d time.Duration) harnessOption {
	return func(cfg *workflow.CourierConfig) { cfg.OfferWindow = d }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	handlers := commands.NewHandlers(factory)
	clk := &clock{now: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)}
	messenger := recorder.NewMessenger(logger)
	convStore := convstore.NewMemoryStore()
	conversations := workflow.NewConversations(convStore, keyedmutex.New(), clk.Now)

	fence, err := kernel.NewGeofence(5.20, 5.50, -4.20, -3.80)
	require.NoError(t, err)
	fees, err := services.NewFeeCalculator(1000, 1500, time.UTC, fence)
	require.NoError(t, err)

	cfg := workflow.CourierConfig{OfferWindow: time.Hour, CandidateLimit: 10, SupportPhone: supportPhone}
	for _, opt := range opts {
		opt(&cfg)
	}

	repos := factory.Create()
	cart := workflow.NewCartManager(repos.CatalogRepository(), fees, handlers.Checkout, clk.Now, logger)
	couriers := workflow.NewCourierCoordinator(workflow.CourierHandlers{
		Assign:  handlers.AssignCourier,
		Respond: handlers.RespondToOffer,
		Expire:  handlers.ExpireOffer,
		Advance: handlers.AdvanceDelivery,
	}, repos.OrderRepository(), repos.CatalogRepository(), messenger, cfg, clk.Now, logger)
	t.Cleanup(couriers.Close)

	prescriptions := workflow.NewPrescriptionCoordinator(workflow.PrescriptionDeps{
		Handlers: workflow.PrescriptionHandlers{
			Submit: handlers.SubmitPrescription,
			Review: handlers.ReviewPrescription,
			Expire: handlers.ExpireReview,
		},
		Orders:        repos.OrderRepository(),
		Catalog:       repos.CatalogRepository(),
		Messenger:     messenger,
		Conversations: conversations,
		Cart:          cart,
		Couriers:      couriers,
		ReviewWindow:  30 * time.Minute,
		Now:           clk.Now,
		Logger:        logger,
	})

	h := &harness{
		t:             t,
		store:         store,
		factory:       factory,
		conversations: conversations,
		convStore:     convStore,
		messenger:     messenger,
		clock:         clk,
		cart:          cart,
		couriers:      couriers,
		prescriptions: prescriptions,
	}
	h.seedCatalog()
	return h
}

func (h *harness) seedCatalog() {
	ctx := h.t.Context()
	repo := h.factory.Create().CatalogRepository()

	h.pharmacy = catalog.Pharmacy{
		ID: kernel.NewUUID(), Name: "Pharmacie du Plateau", Phone: pharmacyPhone, Open: true, Location: plateau,
	}
	h.paracetamol = catalog.Medicine{
		ID: kernel.NewUUID(), PharmacyID: h.pharmacy.ID, Name: "Paracétamol 500mg", Price: 1500, Stock: 10,
	}
	h.amoxicillin = catalog.Medicine{
		ID: kernel.NewUUID(), PharmacyID: h.pharmacy.ID, Name: "Amoxicilline 1g", Price: 4200, Stock: 3,
		RequiresPrescription: true,
	}
	require.NoError(h.t, repo.UpsertPharmacy(ctx, h.pharmacy))
	require.NoError(h.t, repo.UpsertMedicine(ctx, h.paracetamol))
	require.NoError(h.t, repo.UpsertMedicine(ctx, h.amoxicillin))
}

func (h *harness) addCourier(name, phone string, at *kernel.GeoPoint) *courier.Courier {
	h.t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), name, phone, true, at)
	require.NoError(h.t, err)
	require.NoError(h.t, h.factory.Create().CourierRepository().Add(h.t.Context(), c))
	return c
}

// checkedOutOrder places a paracetamol order straight into PENDING_COURIER.
func (h *harness) checkedOutOrder() kernel.UUID {
	h.t.Helper()
	state := conversation.NewState(customerPhone)
	_, err := h.cart.TryAddItem(h.t.Context(), &state, h.paracetamol.ID, 2)
	require.NoError(h.t, err)
	result, _, err := h.cart.Checkout(h.t.Context(), &state, cocody)
	require.NoError(h.t, err)
	require.Equal(h.t, order.PendingCourier, result.Status)
	return result.OrderID
}

func (h *harness) order(id kernel.UUID) *order.Order {
	h.t.Helper()
	o, err := h.factory.Create().OrderRepository().Get(h.t.Context(), id)
	require.NoError(h.t, err)
	return o
}

func (h *harness) state(userID string) conversation.State {
	h.t.Helper()
	s, err := h.convStore.Get(h.t.Context(), userID)
	require.NoError(h.t, err)
	return s
}

// offeredPhone returns the phone of the courier holding the outstanding offer on id.
func (h *harness) offeredPhone(id kernel.UUID) string {
	h.t.Helper()
	courierID := h.order(id).OutstandingCourier()
	require.NotNil(h.t, courierID, "no outstanding offer")
	c, err := h.factory.Create().CourierRepository().Get(h.t.Context(), *courierID)
	require.NoError(h.t, err)
	return c.Phone()
}
