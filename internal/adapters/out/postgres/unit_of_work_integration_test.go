//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	pgadapter "pharmadelivery/internal/adapters/out/postgres"
	"pharmadelivery/internal/adapters/out/postgres/appointmentrepo"
	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	now     = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	abidjan = kernel.MustNewGeoPoint(5.3600, -4.0083)
)

// StoreIntegrationTestSuite runs the repositories and the unit of work
// against a real PostgreSQL.
type StoreIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   *pgadapter.GormUnitOfWorkFactory
}

func TestStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(StoreIntegrationTestSuite))
}

func (s *StoreIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := pgadapter.Open(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.Require().NoError(pgadapter.Migrate(db))
	s.db = db
	s.factory = pgadapter.NewGormUnitOfWorkFactory(db)
}

func (s *StoreIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec(
		"TRUNCATE TABLE orders, couriers, pharmacies, medicines, doctors, appointments").Error)
}

func (s *StoreIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *StoreIntegrationTestSuite) pendingCourierOrder() *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), "2250701020304", kernel.NewUUID(), now)
	s.Require().NoError(err)
	s.Require().NoError(o.Checkout([]order.Line{{
		MedicineID: kernel.NewUUID(),
		Name:       "Paracétamol 500mg",
		Quantity:   2,
		UnitPrice:  1500,
	}}, abidjan, 1000, now))
	return o
}

func (s *StoreIntegrationTestSuite) verifiedCourier(name, phone string) *courier.Courier {
	c, err := courier.RestoreCourier(kernel.NewUUID(), name, phone, true, &abidjan)
	s.Require().NoError(err)
	s.Require().NoError(s.factory.Create().CourierRepository().Add(s.T().Context(), c))
	return c
}

func (s *StoreIntegrationTestSuite) medicine(stock int) catalog.Medicine {
	m := catalog.Medicine{
		ID:         kernel.NewUUID(),
		PharmacyID: kernel.NewUUID(),
		Name:       "Paracétamol 500mg",
		Aliases:    []string{"Doliprane"},
		Price:      1500,
		Stock:      stock,
	}
	s.Require().NoError(s.factory.Create().CatalogRepository().UpsertMedicine(s.T().Context(), m))
	return m
}

func (s *StoreIntegrationTestSuite) TestOrder_RoundTrip() {
	ctx := s.T().Context()
	repo := s.factory.Create().OrderRepository()
	o := s.pendingCourierOrder()
	courierID := kernel.NewUUID()
	s.Require().NoError(o.Offer(courierID, now))

	s.Require().NoError(repo.Add(ctx, o))
	s.Equal(int64(1), o.Version())

	loaded, err := repo.Get(ctx, o.ID())
	s.Require().NoError(err)
	s.Equal(order.PendingCourier, loaded.Status())
	s.Equal(o.Total(), loaded.Total())
	s.Require().Len(loaded.Lines(), 1)
	s.Equal("Paracétamol 500mg", loaded.Lines()[0].Name)
	s.Require().NotNil(loaded.Delivery())
	s.True(loaded.Delivery().IsEqual(abidjan))
	s.Require().NotNil(loaded.OutstandingCourier())
	s.True(loaded.OutstandingCourier().IsEqual(courierID))
	s.Equal(int64(1), loaded.Revision().Version)
}

func (s *StoreIntegrationTestSuite) TestOrder_GetUnknown() {
	_, err := s.factory.Create().OrderRepository().Get(s.T().Context(), kernel.NewUUID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *StoreIntegrationTestSuite) TestOrder_UpdateIsConditionalOnRevision() {
	ctx := s.T().Context()
	repo := s.factory.Create().OrderRepository()
	o := s.pendingCourierOrder()
	s.Require().NoError(repo.Add(ctx, o))

	first, err := repo.Get(ctx, o.ID())
	s.Require().NoError(err)
	second, err := repo.Get(ctx, o.ID())
	s.Require().NoError(err)

	s.Require().NoError(first.Offer(kernel.NewUUID(), now))
	s.Require().NoError(second.MarkUnassignable(now))

	s.Require().NoError(repo.Update(ctx, first))
	s.Equal(int64(2), first.Version())
	s.ErrorIs(repo.Update(ctx, second), errs.ErrObjectIsStale)

	stored, err := repo.Get(ctx, o.ID())
	s.Require().NoError(err)
	s.Equal(order.PendingCourier, stored.Status())
}

func (s *StoreIntegrationTestSuite) TestOrder_ConcurrentOffersHaveOneWinner() {
	ctx := s.T().Context()
	o := s.pendingCourierOrder()
	s.Require().NoError(s.factory.Create().OrderRepository().Add(ctx, o))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo := s.factory.Create().OrderRepository()
			loaded, err := repo.Get(ctx, o.ID())
			if err != nil || loaded.Offer(kernel.NewUUID(), now) != nil {
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

	s.Equal(1, wins)
}

func (s *StoreIntegrationTestSuite) TestUnitOfWork_RollbackDiscardsEveryRepository() {
	ctx := s.T().Context()
	m := s.medicine(5)

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.CatalogRepository().DecrementStock(ctx, m.ID, 3))
	s.Require().NoError(uow.OrderRepository().Add(ctx, s.pendingCourierOrder()))
	s.Require().NoError(uow.Rollback(ctx))

	stored, err := s.factory.Create().CatalogRepository().GetMedicine(ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(5, stored.Stock)

	orders, err := s.factory.Create().OrderRepository().GetAllInStatus(ctx)
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *StoreIntegrationTestSuite) TestUnitOfWork_CommitPersists() {
	ctx := s.T().Context()
	o := s.pendingCourierOrder()

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.Begin(ctx), "second Begin is a no-op")
	s.Require().NoError(uow.OrderRepository().Add(ctx, o))
	s.Require().NoError(uow.Commit(ctx))
	s.ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)

	_, err := s.factory.Create().OrderRepository().Get(ctx, o.ID())
	s.NoError(err)
}

func (s *StoreIntegrationTestSuite) TestCatalog_DecrementStockIsConditional() {
	ctx := s.T().Context()
	repo := s.factory.Create().CatalogRepository()
	m := s.medicine(2)

	s.ErrorIs(repo.DecrementStock(ctx, m.ID, 3), errs.ErrObjectIsStale)
	s.Require().NoError(repo.DecrementStock(ctx, m.ID, 2))
	s.ErrorIs(repo.DecrementStock(ctx, m.ID, 1), errs.ErrObjectIsStale)
	s.ErrorIs(repo.DecrementStock(ctx, kernel.NewUUID(), 1), errs.ErrObjectNotFound)
}

func (s *StoreIntegrationTestSuite) TestCatalog_SearchIgnoresCaseAccentsAndEmptyStock() {
	ctx := s.T().Context()
	repo := s.factory.Create().CatalogRepository()
	inStock := s.medicine(4)
	s.medicine(0)

	for _, q := range []string{"PARACETAMOL", "paracétamol", "doli"} {
		found, err := repo.SearchMedicines(ctx, q, 5)
		s.Require().NoError(err)
		s.Require().Len(found, 1, q)
		s.True(found[0].ID.IsEqual(inStock.ID))
		s.Equal([]string{"Doliprane"}, found[0].Aliases)
	}

	found, err := repo.SearchMedicines(ctx, "100%", 5)
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *StoreIntegrationTestSuite) TestCatalog_PharmacyFilterAndUpsert() {
	ctx := s.T().Context()
	repo := s.factory.Create().CatalogRepository()
	onDuty := catalog.Pharmacy{ID: kernel.NewUUID(), Name: "Pharmacie de Cocody", Phone: "2250102030499",
		OnDuty: true, Open: true, Location: abidjan}
	closed := catalog.Pharmacy{ID: kernel.NewUUID(), Name: "Pharmacie du Plateau", Phone: "2250102030405",
		Location: abidjan}
	s.Require().NoError(repo.UpsertPharmacy(ctx, onDuty))
	s.Require().NoError(repo.UpsertPharmacy(ctx, closed))

	closed.Open = true
	s.Require().NoError(repo.UpsertPharmacy(ctx, closed))

	all, err := repo.ListPharmacies(ctx, ports.PharmacyFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	open, err := repo.ListPharmacies(ctx, ports.PharmacyFilter{OpenOnly: true})
	s.Require().NoError(err)
	s.Len(open, 2)

	duty, err := repo.ListPharmacies(ctx, ports.PharmacyFilter{OnDutyOnly: true})
	s.Require().NoError(err)
	s.Require().Len(duty, 1)
	s.Equal("Pharmacie de Cocody", duty[0].Name)
}

func (s *StoreIntegrationTestSuite) TestCourier_GetAllFreeSkipsBusyCouriers() {
	ctx := s.T().Context()
	offered := s.verifiedCourier("Koffi", "2250500000001")
	delivering := s.verifiedCourier("Awa", "2250500000002")
	free := s.verifiedCourier("Yao", "2250500000003")
	unverified, err := courier.NewCourier(kernel.NewUUID(), "Ama", "2250500000004")
	s.Require().NoError(err)
	s.Require().NoError(s.factory.Create().CourierRepository().Add(ctx, unverified))

	orders := s.factory.Create().OrderRepository()
	pending := s.pendingCourierOrder()
	s.Require().NoError(pending.Offer(offered.ID(), now))
	s.Require().NoError(orders.Add(ctx, pending))

	assigned := s.pendingCourierOrder()
	s.Require().NoError(assigned.Offer(delivering.ID(), now))
	s.Require().NoError(assigned.AcceptOffer(delivering.ID(), now))
	s.Require().NoError(orders.Add(ctx, assigned))

	candidates, err := s.factory.Create().CourierRepository().GetAllFree(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(candidates, 1)
	s.True(candidates[0].IsEqual(free))
}

func (s *StoreIntegrationTestSuite) TestCourier_PhoneIsUnique() {
	ctx := s.T().Context()
	s.verifiedCourier("Koffi", "2250500000001")

	dup, err := courier.NewCourier(kernel.NewUUID(), "Other", "2250500000001")
	s.Require().NoError(err)
	s.ErrorIs(s.factory.Create().CourierRepository().Add(ctx, dup), errs.ErrValueIsInvalid)

	found, err := s.factory.Create().CourierRepository().GetByPhone(ctx, "2250500000001")
	s.Require().NoError(err)
	s.Equal("Koffi", found.Name())
}

func (s *StoreIntegrationTestSuite) TestAppointments_AddAndList() {
	ctx := s.T().Context()
	a, err := appointment.NewAppointment(kernel.NewUUID(), "2250701020304", "Aya", kernel.NewUUID(), now)
	s.Require().NoError(err)
	s.Require().NoError(s.factory.Create().AppointmentRepository().Add(ctx, a))

	listed, err := appointmentrepo.NewGormAppointmentRepository(s.db).ListByCustomer(ctx, "2250701020304")
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(appointment.StatusRequested, listed[0].Status())
}

func (s *StoreIntegrationTestSuite) TestReader_ListOrders() {
	ctx := s.T().Context()
	repo := s.factory.Create().OrderRepository()
	first := s.pendingCourierOrder()
	s.Require().NoError(repo.Add(ctx, first))
	second := s.pendingCourierOrder()
	s.Require().NoError(second.MarkUnassignable(now))
	s.Require().NoError(repo.Add(ctx, second))

	reader := s.factory.Reader()
	pending, err := reader.ListOrders(ctx, []order.Status{order.PendingCourier}, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.True(pending[0].ID.IsEqual(first.ID()))
	s.Equal(int64(4000), pending[0].Total)

	summary, err := reader.GetOrder(ctx, second.ID())
	s.Require().NoError(err)
	s.Equal(order.Unassignable, summary.Status)
}
