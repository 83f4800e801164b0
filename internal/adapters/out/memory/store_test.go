package memory_test

import (
	"sync"
	"testing"
	"time"

	"pharmadelivery/internal/adapters/out/memory"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now     = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	abidjan = kernel.MustNewGeoPoint(5.3600, -4.0083)
)

func newPendingCourierOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), "2250701020304", kernel.NewUUID(), now)
	require.NoError(t, err)
	require.NoError(t, o.Checkout([]order.Line{{
		MedicineID: kernel.NewUUID(),
		Name:       "Paracétamol 500mg",
		Quantity:   2,
		UnitPrice:  1500,
	}}, abidjan, 1000, now))
	return o
}

func newVerifiedCourier(t *testing.T, name, phone string) *courier.Courier {
	t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), name, phone, true, nil)
	require.NoError(t, err)
	return c
}

func TestOrderRepository_UpdateIsConditionalOnRevision(t *testing.T) {
	ctx := t.Context()
	uow := memory.NewUnitOfWorkFactory(memory.NewStore()).Create()
	repo := uow.OrderRepository()

	o := newPendingCourierOrder(t)
	require.NoError(t, repo.Add(ctx, o))
	assert.Equal(t, int64(1), o.Version())

	first, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)

	courierID := kernel.NewUUID()
	require.NoError(t, first.Offer(courierID, now))
	require.NoError(t, second.MarkUnassignable(now))

	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version())

	err = repo.Update(ctx, second)
	require.ErrorIs(t, err, errs.ErrObjectIsStale)

	stored, err := repo.Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.PendingCourier, stored.Status())
	require.NotNil(t, stored.OutstandingCourier())
	assert.True(t, stored.OutstandingCourier().IsEqual(courierID))
}

func TestOrderRepository_ConcurrentUpdatesHaveOneWinner(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())

	o := newPendingCourierOrder(t)
	require.NoError(t, factory.Create().OrderRepository().Add(ctx, o))

	const contenders = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo := factory.Create().OrderRepository()
			loaded, err := repo.Get(ctx, o.ID())
			if !assert.NoError(t, err) {
				return
			}
			if loaded.Offer(kernel.NewUUID(), now) != nil {
				return
			}
			if repo.Update(ctx, loaded) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	stored, err := factory.Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Len(t, stored.Attempts(), 1)
}

func TestUnitOfWork_RollbackUndoesWrites(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)

	medicineID := kernel.NewUUID()
	require.NoError(t, factory.Create().CatalogRepository().UpsertMedicine(ctx, catalog.Medicine{
		ID: medicineID, PharmacyID: kernel.NewUUID(), Name: "Ibuprofène 400mg", Price: 2000, Stock: 5,
	}))
	existing := newPendingCourierOrder(t)
	require.NoError(t, factory.Create().OrderRepository().Add(ctx, existing))

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	added := newPendingCourierOrder(t)
	require.NoError(t, uow.OrderRepository().Add(ctx, added))
	require.NoError(t, uow.CatalogRepository().DecrementStock(ctx, medicineID, 3))
	loaded, err := uow.OrderRepository().Get(ctx, existing.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Offer(kernel.NewUUID(), now))
	require.NoError(t, uow.OrderRepository().Update(ctx, loaded))
	require.NoError(t, uow.CourierRepository().Add(ctx, newVerifiedCourier(t, "Koffi", "2250500000001")))

	require.NoError(t, uow.Rollback(ctx))

	reader := factory.Create()
	_, err = reader.OrderRepository().Get(ctx, added.ID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)

	m, err := reader.CatalogRepository().GetMedicine(ctx, medicineID)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Stock)

	restored, err := reader.OrderRepository().Get(ctx, existing.ID())
	require.NoError(t, err)
	assert.False(t, restored.HasOutstandingOffer())
	assert.Equal(t, int64(1), restored.Version())

	_, err = reader.CourierRepository().GetByPhone(ctx, "2250500000001")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestUnitOfWork_RollbackKeepsInterleavedCommits(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())

	medicineID := kernel.NewUUID()
	require.NoError(t, factory.Create().CatalogRepository().UpsertMedicine(ctx, catalog.Medicine{
		ID: medicineID, PharmacyID: kernel.NewUUID(), Name: "Paracétamol 500mg", Price: 1500, Stock: 10,
	}))
	o := newPendingCourierOrder(t)
	require.NoError(t, factory.Create().OrderRepository().Add(ctx, o))

	failing := factory.Create()
	require.NoError(t, failing.Begin(ctx))
	require.NoError(t, failing.CatalogRepository().DecrementStock(ctx, medicineID, 2))
	offered, err := failing.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	require.NoError(t, offered.Offer(kernel.NewUUID(), now))
	require.NoError(t, failing.OrderRepository().Update(ctx, offered))

	committed := factory.Create()
	require.NoError(t, committed.Begin(ctx))
	require.NoError(t, committed.CatalogRepository().DecrementStock(ctx, medicineID, 3))
	current, err := committed.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	require.NoError(t, current.RefuseOffer(*current.OutstandingCourier(), now))
	require.NoError(t, committed.OrderRepository().Update(ctx, current))
	require.NoError(t, committed.Commit(ctx))

	require.NoError(t, failing.Rollback(ctx))

	reader := factory.Create()
	m, err := reader.CatalogRepository().GetMedicine(ctx, medicineID)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Stock, "only the rolled back decrement is returned")

	stored, err := reader.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Version())
	require.Len(t, stored.Attempts(), 1)
	assert.Equal(t, order.Refused, stored.Attempts()[0].Outcome)
}

func TestUnitOfWork_CommitWithoutBegin(t *testing.T) {
	uow := memory.NewUnitOfWorkFactory(memory.NewStore()).Create()

	require.ErrorIs(t, uow.Commit(t.Context()), memory.ErrNoTransaction)
	require.ErrorIs(t, uow.Rollback(t.Context()), memory.ErrNoTransaction)
}

func TestCourierRepository_GetAllFree(t *testing.T) {
	ctx := t.Context()
	uow := memory.NewUnitOfWorkFactory(memory.NewStore()).Create()
	couriers := uow.CourierRepository()
	orders := uow.OrderRepository()

	offered := newVerifiedCourier(t, "Awa", "2250500000001")
	delivering := newVerifiedCourier(t, "Yao", "2250500000002")
	free := newVerifiedCourier(t, "Koffi", "2250500000003")
	unverified, err := courier.NewCourier(kernel.NewUUID(), "Moussa", "2250500000004")
	require.NoError(t, err)
	for _, c := range []*courier.Courier{offered, delivering, free, unverified} {
		require.NoError(t, couriers.Add(ctx, c))
	}

	withOffer := newPendingCourierOrder(t)
	require.NoError(t, withOffer.Offer(offered.ID(), now))
	require.NoError(t, orders.Add(ctx, withOffer))

	assigned := newPendingCourierOrder(t)
	require.NoError(t, assigned.Offer(delivering.ID(), now))
	require.NoError(t, assigned.AcceptOffer(delivering.ID(), now))
	require.NoError(t, orders.Add(ctx, assigned))

	got, err := couriers.GetAllFree(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsEqual(free))
}

func TestCourierRepository_GetAllFreeHonoursLimit(t *testing.T) {
	ctx := t.Context()
	couriers := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().CourierRepository()
	require.NoError(t, couriers.Add(ctx, newVerifiedCourier(t, "Awa", "2250500000001")))
	require.NoError(t, couriers.Add(ctx, newVerifiedCourier(t, "Yao", "2250500000002")))
	require.NoError(t, couriers.Add(ctx, newVerifiedCourier(t, "Koffi", "2250500000003")))

	got, err := couriers.GetAllFree(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Awa", got[0].Name())
	assert.Equal(t, "Yao", got[1].Name())
}

func TestCourierRepository_GetAllVerifiedIncludesBusyCouriers(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	couriers := factory.Create().CourierRepository()

	busy := newVerifiedCourier(t, "Awa", "2250500000001")
	require.NoError(t, couriers.Add(ctx, busy))
	unverified, err := courier.RestoreCourier(kernel.NewUUID(), "Yao", "2250500000002", false, nil)
	require.NoError(t, err)
	require.NoError(t, couriers.Add(ctx, unverified))
	require.NoError(t, couriers.Add(ctx, newVerifiedCourier(t, "Koffi", "2250500000003")))

	o := newPendingCourierOrder(t)
	require.NoError(t, o.Offer(busy.ID(), now))
	require.NoError(t, factory.Create().OrderRepository().Add(ctx, o))

	got, err := couriers.GetAllVerified(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Awa", got[0].Name())
	assert.Equal(t, "Koffi", got[1].Name())

	got, err = couriers.GetAllVerified(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestCourierRepository_RejectsDuplicatePhone(t *testing.T) {
	ctx := t.Context()
	couriers := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().CourierRepository()
	require.NoError(t, couriers.Add(ctx, newVerifiedCourier(t, "Awa", "2250500000001")))

	err := couriers.Add(ctx, newVerifiedCourier(t, "Awa bis", "2250500000001"))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestCatalogRepository_DecrementStockIsConditional(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().CatalogRepository()
	id := kernel.NewUUID()
	require.NoError(t, repo.UpsertMedicine(ctx, catalog.Medicine{
		ID: id, PharmacyID: kernel.NewUUID(), Name: "Amoxicilline 1g", Price: 4200, Stock: 2,
	}))

	require.NoError(t, repo.DecrementStock(ctx, id, 2))
	err := repo.DecrementStock(ctx, id, 1)
	require.ErrorIs(t, err, errs.ErrObjectIsStale)

	m, err := repo.GetMedicine(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Stock)
}

func TestCatalogRepository_SearchMedicines(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().CatalogRepository()
	pharmacyID := kernel.NewUUID()
	for _, m := range []catalog.Medicine{
		{ID: kernel.NewUUID(), PharmacyID: pharmacyID, Name: "Paracétamol 500mg", Aliases: []string{"Doliprane"}, Price: 1500, Stock: 10},
		{ID: kernel.NewUUID(), PharmacyID: pharmacyID, Name: "Paracétamol 1g", Price: 2500, Stock: 0},
		{ID: kernel.NewUUID(), PharmacyID: pharmacyID, Name: "Ibuprofène 400mg", Price: 2000, Stock: 4},
	} {
		require.NoError(t, repo.UpsertMedicine(ctx, m))
	}

	got, err := repo.SearchMedicines(ctx, "PARACETAMOL", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Paracétamol 500mg", got[0].Name)

	got, err = repo.SearchMedicines(ctx, "doli", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestCatalogRepository_ListPharmaciesFilter(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewUnitOfWorkFactory(memory.NewStore()).Create().CatalogRepository()
	require.NoError(t, repo.UpsertPharmacy(ctx, catalog.Pharmacy{
		ID: kernel.NewUUID(), Name: "Pharmacie de garde", Phone: "1", OnDuty: true, Open: true, Location: abidjan,
	}))
	require.NoError(t, repo.UpsertPharmacy(ctx, catalog.Pharmacy{
		ID: kernel.NewUUID(), Name: "Pharmacie du jour", Phone: "2", Open: true, Location: abidjan,
	}))

	all, err := repo.ListPharmacies(ctx, ports.PharmacyFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onDuty, err := repo.ListPharmacies(ctx, ports.PharmacyFilter{OnDutyOnly: true})
	require.NoError(t, err)
	require.Len(t, onDuty, 1)
	assert.Equal(t, "Pharmacie de garde", onDuty[0].Name)
}

func TestOrderReader_ListOrders(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	repo := factory.Create().OrderRepository()

	pending := newPendingCourierOrder(t)
	require.NoError(t, repo.Add(ctx, pending))
	draft, err := order.NewOrder(kernel.NewUUID(), "2250700000000", kernel.NewUUID(), now.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, draft))

	reader := factory.Reader()

	all, err := reader.ListOrders(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].ID.IsEqual(pending.ID()))
	assert.Equal(t, int64(4000), all[0].Total)

	drafts, err := reader.ListOrders(ctx, []order.Status{order.Draft}, 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.True(t, drafts[0].ID.IsEqual(draft.ID()))

	_, err = reader.GetOrder(ctx, kernel.NewUUID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}
