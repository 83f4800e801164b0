package commands_test

import (
	"context"

	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/appointment"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatus(ctx context.Context, statuses ...order.Status) ([]*order.Order, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Update(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) GetByPhone(ctx context.Context, phone string) (*courier.Courier, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) GetAllVerified(ctx context.Context, limit int) ([]*courier.Courier, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) GetAllFree(ctx context.Context, limit int) ([]*courier.Courier, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*courier.Courier), args.Error(1)
}

type MockCatalogRepository struct{ mock.Mock }

func (m *MockCatalogRepository) GetPharmacy(ctx context.Context, id kernel.UUID) (catalog.Pharmacy, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Pharmacy), args.Error(1)
}

func (m *MockCatalogRepository) ListPharmacies(
	ctx context.Context, filter ports.PharmacyFilter,
) ([]catalog.Pharmacy, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Pharmacy), args.Error(1)
}

func (m *MockCatalogRepository) UpsertPharmacy(ctx context.Context, p catalog.Pharmacy) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetMedicine(ctx context.Context, id kernel.UUID) (catalog.Medicine, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Medicine), args.Error(1)
}

func (m *MockCatalogRepository) SearchMedicines(ctx context.Context, query string, limit int) ([]catalog.Medicine, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]catalog.Medicine), args.Error(1)
}

func (m *MockCatalogRepository) UpsertMedicine(ctx context.Context, med catalog.Medicine) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockCatalogRepository) DecrementStock(ctx context.Context, medicineID kernel.UUID, quantity int) error {
	args := m.Called(ctx, medicineID, quantity)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetDoctor(ctx context.Context, id kernel.UUID) (catalog.Doctor, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(catalog.Doctor), args.Error(1)
}

func (m *MockCatalogRepository) ListDoctors(ctx context.Context, limit int) ([]catalog.Doctor, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]catalog.Doctor), args.Error(1)
}

func (m *MockCatalogRepository) UpsertDoctor(ctx context.Context, d catalog.Doctor) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

type MockAppointmentRepository struct{ mock.Mock }

func (m *MockAppointmentRepository) Add(ctx context.Context, a *appointment.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockUoW satisfies every unit of work interface of the package.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) CourierRepository() ports.CourierRepository {
	args := m.Called()
	return args.Get(0).(ports.CourierRepository)
}

func (m *MockUoW) CatalogRepository() ports.CatalogRepository {
	args := m.Called()
	return args.Get(0).(ports.CatalogRepository)
}

func (m *MockUoW) AppointmentRepository() ports.AppointmentRepository {
	args := m.Called()
	return args.Get(0).(ports.AppointmentRepository)
}

type MockUoWFactory struct{ uow *MockUoW }

func (f MockUoWFactory) Create() commands.UoW { return f.uow }

type MockOrderUoWFactory struct{ uow *MockUoW }

func (f MockOrderUoWFactory) Create() commands.OrderUoW { return f.uow }

type MockOrderCatalogUoWFactory struct{ uow *MockUoW }

func (f MockOrderCatalogUoWFactory) Create() commands.OrderCatalogUoW { return f.uow }

type MockCourierUoWFactory struct{ uow *MockUoW }

func (f MockCourierUoWFactory) Create() commands.CourierUoW { return f.uow }

type MockAppointmentUoWFactory struct{ uow *MockUoW }

func (f MockAppointmentUoWFactory) Create() commands.AppointmentUoW { return f.uow }

// newTxUoW returns a unit of work expecting one Begin and the deferred Rollback.
func newTxUoW(ctx context.Context) *MockUoW {
	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	return uow
}
