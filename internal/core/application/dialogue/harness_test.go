package dialogue_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"pharmadelivery/internal/adapters/out/convstore"
	"pharmadelivery/internal/adapters/out/dedupe"
	"pharmadelivery/internal/adapters/out/memory"
	"pharmadelivery/internal/adapters/out/recorder"
	"pharmadelivery/internal/core/application/dialogue"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/application/workflow"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/keyedmutex"

	"github.com/stretchr/testify/require"
)

const (
	customerPhone = "2250701020304"
	plateauPhone  = "2250102030405"
	cocodyPhone   = "2250102030499"
	courierPhone  = "2250500000002"
	supportPhone  = "2250100000000"
)

var (
	plateau  = kernel.MustNewGeoPoint(5.3237, -4.0176)
	cocody   = kernel.MustNewGeoPoint(5.3599, -3.9870)
	treich   = kernel.MustNewGeoPoint(5.3290, -4.0200)
	bouake   = kernel.MustNewGeoPoint(7.6906, -5.0303)
	fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
)

type stubAdvisor struct {
	answer string
	err    error
}

func (a stubAdvisor) Advise(context.Context, string) (string, error) {
	return a.answer, a.err
}

// brokenCatalog fails every search, standing in for an unreachable store.
type brokenCatalog struct {
	ports.CatalogRepository
}

func (brokenCatalog) SearchMedicines(context.Context, string, int) ([]catalog.Medicine, error) {
	return nil, errors.New("connection refused")
}

type harness struct {
	t *testing.T

	store      *memory.Store
	factory    *memory.UnitOfWorkFactory
	convStore  *convstore.MemoryStore
	messenger  *recorder.Messenger
	couriers   *workflow.CourierCoordinator
	dispatcher *dialogue.Dispatcher

	plateauParacetamol catalog.Medicine
	cocodyParacetamol  catalog.Medicine
	amoxicillin        catalog.Medicine
	doctor             catalog.Doctor
}

type harnessConfig struct {
	advisor ports.Advisor
	catalog func(ports.CatalogRepository) ports.CatalogRepository
}

type harnessOption func(*harnessConfig)

func withAdvisor(a ports.Advisor) harnessOption {
	return func(c *harnessConfig) { c.advisor = a }
}

func withBrokenCatalog() harnessOption {
	return func(c *harnessConfig) {
		c.catalog = func(repo ports.CatalogRepository) ports.CatalogRepository { return brokenCatalog{repo} }
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	now := func() time.Time { return fixedNow }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	handlers := commands.NewHandlers(factory)
	messenger := recorder.NewMessenger(logger)
	convStore := convstore.NewMemoryStore()
	conversations := workflow.NewConversations(convStore, keyedmutex.New(), now)

	fence, err := kernel.NewGeofence(5.20, 5.50, -4.20, -3.80)
	require.NoError(t, err)
	fees, err := services.NewFeeCalculator(1000, 1500, time.UTC, fence)
	require.NoError(t, err)

	repos := factory.Create()
	catalogRepo := repos.CatalogRepository()
	if cfg.catalog != nil {
		catalogRepo = cfg.catalog(catalogRepo)
	}

	cart := workflow.NewCartManager(repos.CatalogRepository(), fees, handlers.Checkout, now, logger)
	couriers := workflow.NewCourierCoordinator(workflow.CourierHandlers{
		Assign:  handlers.AssignCourier,
		Respond: handlers.RespondToOffer,
		Expire:  handlers.ExpireOffer,
		Advance: handlers.AdvanceDelivery,
	}, repos.OrderRepository(), repos.CatalogRepository(), messenger,
		workflow.CourierConfig{OfferWindow: time.Hour, CandidateLimit: 10, SupportPhone: supportPhone}, now, logger)
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
		Now:           now,
		Logger:        logger,
	})

	dispatcher := dialogue.NewDispatcher(dialogue.Deps{
		Conversations: conversations,
		Catalog:       catalogRepo,
		Cart:          cart,
		Prescriptions: prescriptions,
		Couriers:      couriers,
		Appointments:  handlers.BookAppointment,
		Messenger:     messenger,
		Advisor:       cfg.advisor,
		Dedupe:        dedupe.NewMemory(time.Hour, now),
		Now:           now,
		Logger:        logger,
	})

	h := &harness{
		t:          t,
		store:      store,
		factory:    factory,
		convStore:  convStore,
		messenger:  messenger,
		couriers:   couriers,
		dispatcher: dispatcher,
	}
	h.seed()
	return h
}

func (h *harness) seed() {
	ctx := h.t.Context()
	repo := h.factory.Create().CatalogRepository()

	plateauPharmacy := catalog.Pharmacy{
		ID: kernel.NewUUID(), Name: "Pharmacie du Plateau", Address: "Avenue Chardy", Phone: plateauPhone,
		Open: true, OnDuty: true, Location: plateau,
	}
	cocodyPharmacy := catalog.Pharmacy{
		ID: kernel.NewUUID(), Name: "Pharmacie de Cocody", Address: "Rue des Jardins", Phone: cocodyPhone,
		Open: true, OnDuty: true, Location: cocody,
	}
	h.plateauParacetamol = catalog.Medicine{
		ID: kernel.NewUUID(), PharmacyID: plateauPharmacy.ID, Name: "Paracétamol 500mg",
		Aliases: []string{"Doliprane"}, Price: 1500, Stock: 20,
	}
	h.cocodyParacetamol = catalog.Medicine{
		ID: kernel.NewUUID(), PharmacyID: cocodyPharmacy.ID, Name: "Paracétamol 500mg", Price: 1600, Stock: 20,
	}
	h.amoxicillin = catalog.Medicine{
		ID: kernel.NewUUID(), PharmacyID: plateauPharmacy.ID, Name: "Amoxicilline 1g", Price: 4200, Stock: 3,
		RequiresPrescription: true,
	}
	h.doctor = catalog.Doctor{ID: kernel.NewUUID(), Name: "Dr Kouassi", Specialty: "Pédiatrie", Phone: "2250700000009"}

	require.NoError(h.t, repo.UpsertPharmacy(ctx, plateauPharmacy))
	require.NoError(h.t, repo.UpsertPharmacy(ctx, cocodyPharmacy))
	require.NoError(h.t, repo.UpsertMedicine(ctx, h.plateauParacetamol))
	require.NoError(h.t, repo.UpsertMedicine(ctx, h.cocodyParacetamol))
	require.NoError(h.t, repo.UpsertMedicine(ctx, h.amoxicillin))
	require.NoError(h.t, repo.UpsertDoctor(ctx, h.doctor))
}

func (h *harness) addCourier() *courier.Courier {
	h.t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), "Koffi", courierPhone, true, &plateau)
	require.NoError(h.t, err)
	require.NoError(h.t, h.factory.Create().CourierRepository().Add(h.t.Context(), c))
	return c
}

func (h *harness) send(ev dialogue.Event) {
	h.t.Helper()
	if ev.From == "" {
		ev.From = customerPhone
	}
	require.NoError(h.t, h.dispatcher.Dispatch(h.t.Context(), ev))
}

func (h *harness) text(body string) {
	h.t.Helper()
	h.send(dialogue.Event{Type: dialogue.EventText, Text: body, ProfileName: "Aya"})
}

func (h *harness) button(from, id string) {
	h.t.Helper()
	h.send(dialogue.Event{From: from, Type: dialogue.EventButton, ButtonID: id})
}

func (h *harness) state() conversation.State {
	h.t.Helper()
	s, err := h.convStore.Get(h.t.Context(), customerPhone)
	require.NoError(h.t, err)
	return s
}

func (h *harness) order(id kernel.UUID) *order.Order {
	h.t.Helper()
	o, err := h.factory.Create().OrderRepository().Get(h.t.Context(), id)
	require.NoError(h.t, err)
	return o
}

func (h *harness) lastText(to string) string {
	h.t.Helper()
	msg, ok := h.messenger.Last(to)
	require.True(h.t, ok, "nothing sent to %s", to)
	return msg.Body
}
